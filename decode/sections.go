package decode

import "github.com/patvarilly/wasmtoolbox/ast"

const (
	secCustom    = 0
	secType      = 1
	secImport    = 2
	secFunction  = 3
	secTable     = 4
	secMemory    = 5
	secGlobal    = 6
	secExport    = 7
	secStart     = 8
	secElement   = 9
	secCode      = 10
	secData      = 11
	secDataCount = 12
	secTag       = 13
)

// parseSection matches the section id, reads its declared u32 size,
// bounds reads to exactly that many bytes, invokes body, and verifies
// on the way out that body consumed exactly the declared size.
func parseSection[T any](s *source, id byte, body func() (T, error)) (T, error) {
	var zero T
	if err := s.matchByte(id); err != nil {
		return zero, err
	}
	size, err := s.parseU32()
	if err != nil {
		return zero, err
	}
	_, exit := s.enterSection(size)
	result, bodyErr := body()
	if exitErr := exit(); exitErr != nil {
		if bodyErr != nil {
			return zero, bodyErr
		}
		return zero, exitErr
	}
	return result, bodyErr
}

func (s *source) parseTypeSec() ([]ast.FuncType, error) {
	return parseSection(s, secType, func() ([]ast.FuncType, error) {
		return parseVec(s, func(uint32) (ast.FuncType, error) { return s.parseFuncType() })
	})
}

func (s *source) parseImportDesc() (ast.ImportDesc, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return ast.ImportDesc{}, err
	}
	switch b {
	case 0x00:
		idx, err := s.parseU32()
		return ast.ImportDesc{Kind: ast.ImportFunc, TypeIdx: idx}, err
	case 0x01:
		_, err := s.parseTableType()
		return ast.ImportDesc{Kind: ast.ImportTable}, err
	case 0x02:
		_, err := s.parseMemType()
		return ast.ImportDesc{Kind: ast.ImportMemory}, err
	case 0x03:
		_, err := s.parseGlobalType()
		return ast.ImportDesc{Kind: ast.ImportGlobal}, err
	case 0x04:
		idx, err := s.parseTagType()
		return ast.ImportDesc{Kind: ast.ImportTag, TypeIdx: idx}, err
	default:
		return ast.ImportDesc{}, newError(KindGrammar, offset, "unrecognized importdesc type 0x%02x", b)
	}
}

func (s *source) parseImport() (ast.Import, error) {
	module, err := s.parseName()
	if err != nil {
		return ast.Import{}, err
	}
	name, err := s.parseName()
	if err != nil {
		return ast.Import{}, err
	}
	desc, err := s.parseImportDesc()
	if err != nil {
		return ast.Import{}, err
	}
	return ast.Import{Module: module, Name: name, Desc: desc}, nil
}

func (s *source) parseImportSec() ([]ast.Import, error) {
	return parseSection(s, secImport, func() ([]ast.Import, error) {
		return parseVec(s, func(uint32) (ast.Import, error) { return s.parseImport() })
	})
}

func (s *source) parseFuncSec() ([]uint32, error) {
	return parseSection(s, secFunction, func() ([]uint32, error) {
		return parseVec(s, func(uint32) (uint32, error) { return s.parseU32() })
	})
}

func (s *source) parseTableSec() ([]ast.TableType, error) {
	return parseSection(s, secTable, func() ([]ast.TableType, error) {
		return parseVec(s, func(uint32) (ast.TableType, error) { return s.parseTableType() })
	})
}

func (s *source) parseMemSec() ([]ast.MemType, error) {
	return parseSection(s, secMemory, func() ([]ast.MemType, error) {
		return parseVec(s, func(uint32) (ast.MemType, error) { return s.parseMemType() })
	})
}

func (s *source) parseTagSec() ([]uint32, error) {
	return parseSection(s, secTag, func() ([]uint32, error) {
		return parseVec(s, func(uint32) (uint32, error) { return s.parseTagType() })
	})
}

func (s *source) parseGlobalSec() ([]ast.GlobalType, error) {
	return parseSection(s, secGlobal, func() ([]ast.GlobalType, error) {
		return parseVec(s, func(uint32) (ast.GlobalType, error) {
			gt, err := s.parseGlobalType()
			if err != nil {
				return ast.GlobalType{}, err
			}
			if err := s.parseExpr(); err != nil {
				return ast.GlobalType{}, err
			}
			return gt, nil
		})
	})
}

func (s *source) parseExportDesc() (ast.ExportDescKind, uint32, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return 0, 0, err
	}
	var kind ast.ExportDescKind
	switch b {
	case 0x00:
		kind = ast.ExportFunc
	case 0x01:
		kind = ast.ExportTable
	case 0x02:
		kind = ast.ExportMemory
	case 0x03:
		kind = ast.ExportGlobal
	case 0x04:
		kind = ast.ExportTag
	default:
		return 0, 0, newError(KindGrammar, offset, "unrecognized exportdesc type 0x%02x", b)
	}
	idx, err := s.parseU32()
	return kind, idx, err
}

func (s *source) parseExport() (ast.Export, error) {
	name, err := s.parseName()
	if err != nil {
		return ast.Export{}, err
	}
	kind, idx, err := s.parseExportDesc()
	if err != nil {
		return ast.Export{}, err
	}
	return ast.Export{Name: name, Desc: kind, Idx: idx}, nil
}

func (s *source) parseExportSec() ([]ast.Export, error) {
	return parseSection(s, secExport, func() ([]ast.Export, error) {
		return parseVec(s, func(uint32) (ast.Export, error) { return s.parseExport() })
	})
}

func (s *source) parseStartSec() (uint32, error) {
	return parseSection(s, secStart, func() (uint32, error) {
		return s.parseU32()
	})
}

// parseElemSec only supports discriminant 0 (active, implicit table 0,
// vector of function indices), matching the reference implementation's
// own coverage; it returns the number of element segments found.
func (s *source) parseElemSec() (int, error) {
	return parseSection(s, secElement, func() (int, error) {
		segs, err := parseVec(s, func(uint32) (struct{}, error) {
			return struct{}{}, s.parseElem()
		})
		return len(segs), err
	})
}

func (s *source) parseElem() error {
	offset := s.curOffset
	discriminant, err := s.parseU32()
	if err != nil {
		return err
	}
	switch discriminant {
	case 0:
		if err := s.parseExpr(); err != nil {
			return err
		}
		_, err := parseVec(s, func(uint32) (uint32, error) { return s.parseU32() })
		return err
	default:
		return newError(KindGrammar, offset, "unrecognized elem discriminant %d", discriminant)
	}
}

func (s *source) parseLocals() (ast.LocalGroup, error) {
	n, err := s.parseU32()
	if err != nil {
		return ast.LocalGroup{}, err
	}
	vt, err := s.parseValType()
	if err != nil {
		return ast.LocalGroup{}, err
	}
	return ast.LocalGroup{Count: n, ValType: vt}, nil
}

func (s *source) parseFunc() ([]ast.LocalGroup, error) {
	locals, err := parseVec(s, func(uint32) (ast.LocalGroup, error) { return s.parseLocals() })
	if err != nil {
		return nil, err
	}
	if err := s.parseExpr(); err != nil {
		return nil, err
	}
	return locals, nil
}

func (s *source) parseCode() ([]ast.LocalGroup, error) {
	size, err := s.parseU32()
	if err != nil {
		return nil, err
	}
	start, exit := s.enterSection(size)
	_ = start
	locals, bodyErr := s.parseFunc()
	if exitErr := exit(); exitErr != nil {
		if bodyErr != nil {
			return nil, bodyErr
		}
		return nil, exitErr
	}
	return locals, bodyErr
}

func (s *source) parseCodeSec() ([][]ast.LocalGroup, error) {
	return parseSection(s, secCode, func() ([][]ast.LocalGroup, error) {
		return parseVec(s, func(uint32) ([]ast.LocalGroup, error) { return s.parseCode() })
	})
}

// parseDataSec returns only the count: data segment contents are bytes
// destined for linear memory, irrelevant to AST/WAT output.
func (s *source) parseDataSec() (int, error) {
	return parseSection(s, secData, func() (int, error) {
		segs, err := parseVec(s, func(uint32) (struct{}, error) {
			return struct{}{}, s.parseData()
		})
		return len(segs), err
	})
}

func (s *source) parseData() error {
	offset := s.curOffset
	discriminant, err := s.parseU32()
	if err != nil {
		return err
	}
	skipBytesVec := func() error {
		_, err := parseVec(s, func(uint32) (byte, error) { return s.parseByte() })
		return err
	}
	switch discriminant {
	case 0: // active, implicit memory 0
		if err := s.parseExpr(); err != nil {
			return err
		}
		return skipBytesVec()
	case 1: // passive
		return skipBytesVec()
	case 2: // active, explicit memory
		if _, err := s.parseU32(); err != nil { // mem idx
			return err
		}
		if err := s.parseExpr(); err != nil {
			return err
		}
		return skipBytesVec()
	default:
		return newError(KindGrammar, offset, "unrecognized data discriminant %d", discriminant)
	}
}

func (s *source) parseDataCountSec() (uint32, error) {
	return parseSection(s, secDataCount, func() (uint32, error) {
		return s.parseU32()
	})
}
