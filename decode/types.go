package decode

import "github.com/patvarilly/wasmtoolbox/ast"

func (s *source) parseNumType() (ast.ValType, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return 0, err
	}
	switch ast.ValType(b) {
	case ast.I32, ast.I64, ast.F32, ast.F64:
		return ast.ValType(b), nil
	default:
		return 0, newError(KindGrammar, offset, "unrecognized numtype 0x%02x", b)
	}
}

func (s *source) parseVecType() (ast.ValType, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return 0, err
	}
	if ast.ValType(b) != ast.V128 {
		return 0, newError(KindGrammar, offset, "unrecognized vectype 0x%02x", b)
	}
	return ast.V128, nil
}

func (s *source) parseRefType() (ast.ValType, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return 0, err
	}
	switch ast.ValType(b) {
	case ast.FuncRef, ast.ExternRef:
		return ast.ValType(b), nil
	default:
		return 0, newError(KindGrammar, offset, "unrecognized reftype 0x%02x", b)
	}
}

// canParseValType is a pure lookahead: it reports whether the current
// byte, without consuming it, begins a valid valtype.
func (s *source) canParseValType() bool {
	if s.atEOF() {
		return false
	}
	return ast.ValType(s.curByte).Valid()
}

func (s *source) parseValType() (ast.ValType, error) {
	if !s.canParseValType() {
		offset := s.curOffset
		b := s.curByte
		return 0, newError(KindGrammar, offset, "unrecognized valtype 0x%02x", b)
	}
	b := ast.ValType(s.curByte)
	switch {
	case b.IsNumType():
		return s.parseNumType()
	case b.IsVecType():
		return s.parseVecType()
	default:
		return s.parseRefType()
	}
}

func (s *source) parseResultType() (ast.ResultType, error) {
	return parseVec(s, func(uint32) (ast.ValType, error) { return s.parseValType() })
}

func (s *source) parseFuncType() (ast.FuncType, error) {
	if err := s.matchByte(0x60); err != nil {
		return ast.FuncType{}, err
	}
	params, err := s.parseResultType()
	if err != nil {
		return ast.FuncType{}, err
	}
	results, err := s.parseResultType()
	if err != nil {
		return ast.FuncType{}, err
	}
	return ast.FuncType{Params: params, Results: results}, nil
}

func (s *source) parseLimits() (ast.Limits, error) {
	offset := s.curOffset
	flag, err := s.parseByte()
	if err != nil {
		return ast.Limits{}, err
	}
	switch flag {
	case 0x00, 0x02:
		min, err := s.parseU32()
		if err != nil {
			return ast.Limits{}, err
		}
		return ast.Limits{Min: min, Shared: flag == 0x02}, nil
	case 0x01, 0x03:
		min, err := s.parseU32()
		if err != nil {
			return ast.Limits{}, err
		}
		max, err := s.parseU32()
		if err != nil {
			return ast.Limits{}, err
		}
		return ast.Limits{Min: min, Max: &max, Shared: flag == 0x03}, nil
	default:
		return ast.Limits{}, newError(KindGrammar, offset, "unrecognized limits flag 0x%02x", flag)
	}
}

func (s *source) parseMemType() (ast.MemType, error) {
	limits, err := s.parseLimits()
	if err != nil {
		return ast.MemType{}, err
	}
	return ast.MemType{Limits: limits}, nil
}

func (s *source) parseTableType() (ast.TableType, error) {
	elem, err := s.parseRefType()
	if err != nil {
		return ast.TableType{}, err
	}
	limits, err := s.parseLimits()
	if err != nil {
		return ast.TableType{}, err
	}
	return ast.TableType{ElemType: elem, Limits: limits}, nil
}

func (s *source) parseMut() (bool, error) {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, newError(KindGrammar, offset, "unrecognized mut byte 0x%02x", b)
	}
}

func (s *source) parseGlobalType() (ast.GlobalType, error) {
	vt, err := s.parseValType()
	if err != nil {
		return ast.GlobalType{}, err
	}
	mut, err := s.parseMut()
	if err != nil {
		return ast.GlobalType{}, err
	}
	return ast.GlobalType{ValType: vt, Mutable: mut}, nil
}

// parseTagType is the Exception Handling proposal's tag type: a
// reserved zero byte followed by a type index.
func (s *source) parseTagType() (uint32, error) {
	if err := s.matchByte(0x00); err != nil {
		return 0, err
	}
	return s.parseU32()
}
