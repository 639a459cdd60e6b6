// Package decode implements the WebAssembly binary decoder: a streaming,
// one-byte-lookahead parser that turns a binary module into an
// github.com/patvarilly/wasmtoolbox/ast.Module, enforcing the Core
// Specification 2.0 grammar (plus the Threads and Exception Handling
// extensions and the Extended Name Section) along the way.
package decode

import (
	"io"

	"github.com/patvarilly/wasmtoolbox/ast"
)

func (s *source) parseMagic() error {
	for _, b := range []byte{0x00, 0x61, 0x73, 0x6D} {
		if err := s.matchByte(b); err != nil {
			return err
		}
	}
	return nil
}

func (s *source) parseVersion() error {
	for _, b := range []byte{0x01, 0x00, 0x00, 0x00} {
		if err := s.matchByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Logf is the shape of the structured-logging hook the decoder calls
// for the one tolerated anomaly: an unrecognized name-subsection id.
type Logf func(format string, args ...any)

// Decode reads one binary Wasm module from r and returns its AST. logf
// may be nil; when non-nil it is called once per unrecognized name
// subsection encountered, never for any other condition (every other
// failure aborts the decode).
func Decode(r io.Reader, logf Logf) (*ast.Module, error) {
	s := newSource(r)
	module := ast.NewModule()

	parseOptCustomSecs := func() error {
		for !s.atEOF() && s.curByte == secCustom {
			if err := s.parseCustomSec(module, logf); err != nil {
				return err
			}
		}
		return nil
	}

	if err := s.parseMagic(); err != nil {
		return nil, err
	}
	if err := s.parseVersion(); err != nil {
		return nil, err
	}

	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secType {
		types, err := s.parseTypeSec()
		if err != nil {
			return nil, err
		}
		module.Types = types
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secImport {
		imports, err := s.parseImportSec()
		if err != nil {
			return nil, err
		}
		module.Imports = imports
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secFunction {
		fn, err := s.parseFuncSec()
		if err != nil {
			return nil, err
		}
		module.FuncSection = fn
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secTable {
		tables, err := s.parseTableSec()
		if err != nil {
			return nil, err
		}
		module.Tables = tables
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secMemory {
		mems, err := s.parseMemSec()
		if err != nil {
			return nil, err
		}
		module.Memories = mems
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secTag {
		tags, err := s.parseTagSec()
		if err != nil {
			return nil, err
		}
		module.Tags = tags
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secGlobal {
		globals, err := s.parseGlobalSec()
		if err != nil {
			return nil, err
		}
		module.Globals = globals
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secExport {
		exports, err := s.parseExportSec()
		if err != nil {
			return nil, err
		}
		module.Exports = exports
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secStart {
		start, err := s.parseStartSec()
		if err != nil {
			return nil, err
		}
		module.Start = &start
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secElement {
		n, err := s.parseElemSec()
		if err != nil {
			return nil, err
		}
		module.ElementCount = n
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secDataCount {
		n, err := s.parseDataCountSec()
		if err != nil {
			return nil, err
		}
		module.DataCountDeclared = &n
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secCode {
		code, err := s.parseCodeSec()
		if err != nil {
			return nil, err
		}
		module.CodeLocalGroups = code
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}
	if !s.atEOF() && s.curByte == secData {
		n, err := s.parseDataSec()
		if err != nil {
			return nil, err
		}
		module.DataCount = n
	}
	if err := parseOptCustomSecs(); err != nil {
		return nil, err
	}

	if !s.atEOF() {
		return nil, newError(KindFraming, s.curOffset,
			"expected end of file, but the data continues: 0x%02x", s.curByte)
	}

	return module, nil
}
