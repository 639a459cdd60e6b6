package decode

// Control instruction opcodes (those the decoder branches on directly).
const (
	opUnreachable = 0x00
	opNop         = 0x01
	opBlock       = 0x02
	opLoop        = 0x03
	opIf          = 0x04
	opElse        = 0x05
	opTry         = 0x06
	opCatch       = 0x07
	opThrow       = 0x08
	opRethrow     = 0x09
	opEnd         = 0x0B
	opBr          = 0x0C
	opBrIf        = 0x0D
	opBrTable     = 0x0E
	opReturn      = 0x0F
	opCall        = 0x10
	opCallIndir   = 0x11
	opDelegate    = 0x18
	opCatchAll    = 0x19
	opDrop        = 0x1A
	opSelect      = 0x1B
	opSelectT     = 0x1C
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opTableGet    = 0x25
	opTableSet    = 0x26
	opMemSize     = 0x3F
	opMemGrow     = 0x40
	opRefNull     = 0xD0
	opRefIsNull   = 0xD1
	opRefFunc     = 0xD2
	opExtPrefix   = 0xFC
	opAtomPrefix  = 0xFE
)

// Memory load/store opcodes all share the memarg operand shape.
var memOpcodes = map[byte]bool{
	0x28: true, 0x29: true, 0x2A: true, 0x2B: true,
	0x2C: true, 0x2D: true, 0x2E: true, 0x2F: true,
	0x30: true, 0x31: true, 0x32: true, 0x33: true,
	0x34: true, 0x35: true,
	0x36: true, 0x37: true, 0x38: true, 0x39: true,
	0x3A: true, 0x3B: true, 0x3C: true, 0x3D: true, 0x3E: true,
}

// Numeric-constant opcodes; each reads one immediate of its own type.
const (
	opI32Const = 0x41
	opI64Const = 0x42
	opF32Const = 0x43
	opF64Const = 0x44
)

// noOperandOpcodes are the comparison/arithmetic/conversion instructions
// whose entire effect is on the value stack: no immediate operand to
// decode. This is the same "break" bucket the reference parser's switch
// falls through to for these opcodes.
var noOperandOpcodes = buildNoOperandOpcodes()

func buildNoOperandOpcodes() map[byte]bool {
	m := map[byte]bool{}
	addRange := func(lo, hi byte) {
		for b := int(lo); b <= int(hi); b++ {
			m[byte(b)] = true
		}
	}
	addRange(0x45, 0x66) // i32/i64/f32/f64 comparisons
	addRange(0x67, 0xC4) // arithmetic, bitwise, conversions, extendN_s
	return m
}

// Extended (0xFC-prefixed) secondary opcodes.
const (
	extMemoryInit = 8
	extDataDrop   = 9
	extMemoryCopy = 10
	extMemoryFill = 11
)

// Atomic (0xFE-prefixed) secondary opcodes. The reference implementation
// only dispatches a partial subset of the Threads proposal (notify,
// wait32, a handful of i32 loads/stores/RMW ops); SPEC_FULL.md §11.3
// extends this to the full width axis so binaries from current
// toolchains, which emit i64 RMW ops and fence, decode successfully.
// Every one of these opcodes shares the same parse_memarg operand
// shape except fence, which takes a single reserved zero byte.
var atomicMemargOpcodes = map[uint32]bool{
	0x00: true, // memory.atomic.notify
	0x01: true, // memory.atomic.wait32
	0x02: true, // memory.atomic.wait64
	// atomic loads
	0x10: true, 0x11: true, 0x12: true, 0x13: true,
	0x14: true, 0x15: true, 0x16: true,
	// atomic stores
	0x17: true, 0x18: true, 0x19: true, 0x1A: true,
	0x1B: true, 0x1C: true, 0x1D: true,
	// rmw.add
	0x1E: true, 0x1F: true, 0x20: true, 0x21: true, 0x22: true, 0x23: true, 0x24: true,
	// rmw.sub
	0x25: true, 0x26: true, 0x27: true, 0x28: true, 0x29: true, 0x2A: true, 0x2B: true,
	// rmw.and
	0x2C: true, 0x2D: true, 0x2E: true, 0x2F: true, 0x30: true, 0x31: true, 0x32: true,
	// rmw.or
	0x33: true, 0x34: true, 0x35: true, 0x36: true, 0x37: true, 0x38: true, 0x39: true,
	// rmw.xor
	0x3A: true, 0x3B: true, 0x3C: true, 0x3D: true, 0x3E: true, 0x3F: true, 0x40: true,
	// rmw.xchg
	0x41: true, 0x42: true, 0x43: true, 0x44: true, 0x45: true, 0x46: true, 0x47: true,
	// rmw.cmpxchg
	0x48: true, 0x49: true, 0x4A: true, 0x4B: true, 0x4C: true, 0x4D: true, 0x4E: true,
}

const atomicFence = 0x03

// parseInstr decodes exactly one instruction, consuming its opcode and
// any operands, including the bodies of structured control instructions.
func (s *source) parseInstr() error {
	opcodeOffset := s.curOffset
	opcode, err := s.parseByte()
	if err != nil {
		return err
	}

	switch opcode {
	case opUnreachable, opNop:
		return nil

	case opBlock, opLoop:
		if err := s.parseBlockType(); err != nil {
			return err
		}
		if err := s.parseInstrsUntil(opEnd); err != nil {
			return err
		}
		return s.matchByte(opEnd)

	case opIf:
		if err := s.parseBlockType(); err != nil {
			return err
		}
		if err := s.parseInstrsUntilAnyOf(opElse, opEnd); err != nil {
			return err
		}
		if s.maybeMatchByte(opElse) {
			if err := s.parseInstrsUntil(opEnd); err != nil {
				return err
			}
		}
		return s.matchByte(opEnd)

	case opTry:
		if err := s.parseBlockType(); err != nil {
			return err
		}
		if err := s.parseInstrsUntilAnyOf(opCatch, opCatchAll, opDelegate, opEnd); err != nil {
			return err
		}
		if s.maybeMatchByte(opDelegate) {
			_, err := s.parseU32() // label idx
			return err
		}
		for !s.atEOF() && s.curByte == opCatch {
			if err := s.matchByte(opCatch); err != nil {
				return err
			}
			if _, err := s.parseU32(); err != nil { // tag idx
				return err
			}
			if err := s.parseInstrsUntilAnyOf(opCatch, opCatchAll, opEnd); err != nil {
				return err
			}
		}
		if s.maybeMatchByte(opCatchAll) {
			if err := s.parseInstrsUntil(opEnd); err != nil {
				return err
			}
		}
		return s.matchByte(opEnd)

	case opThrow:
		_, err := s.parseU32() // tag idx
		return err
	case opRethrow:
		_, err := s.parseU32() // label idx
		return err
	case opBr, opBrIf:
		_, err := s.parseU32() // label idx
		return err
	case opBrTable:
		if _, err := parseVec(s, func(uint32) (uint32, error) { return s.parseU32() }); err != nil {
			return err
		}
		_, err := s.parseU32() // default label
		return err
	case opReturn:
		return nil
	case opCall:
		_, err := s.parseU32() // func idx
		return err
	case opCallIndir:
		if _, err := s.parseU32(); err != nil { // type idx
			return err
		}
		_, err := s.parseU32() // table idx
		return err
	case opDrop, opSelect:
		return nil
	case opSelectT:
		_, err := s.parseResultType()
		return err
	case opLocalGet, opLocalSet, opLocalTee:
		_, err := s.parseU32()
		return err
	case opGlobalGet, opGlobalSet:
		_, err := s.parseU32()
		return err
	case opTableGet, opTableSet:
		_, err := s.parseU32()
		return err
	case opRefIsNull:
		return nil
	case opRefNull:
		_, err := s.parseRefType()
		return err
	case opRefFunc:
		_, err := s.parseU32()
		return err
	case opMemSize, opMemGrow:
		return s.matchByte(0x00)
	case opI32Const:
		_, err := s.parseI32()
		return err
	case opI64Const:
		_, err := s.parseI64()
		return err
	case opF32Const:
		_, err := s.parseF32()
		return err
	case opF64Const:
		_, err := s.parseF64()
		return err
	case opExtPrefix:
		return s.parseExtInstr()
	case opAtomPrefix:
		return s.parseAtomicInstr()
	}

	if memOpcodes[opcode] {
		return s.parseMemArg()
	}
	if noOperandOpcodes[opcode] {
		return nil
	}
	return newError(KindGrammar, opcodeOffset, "unrecognized instruction opcode 0x%02x", opcode)
}

func (s *source) parseExtInstr() error {
	offset := s.curOffset
	opcode2, err := s.parseU32()
	if err != nil {
		return err
	}
	switch opcode2 {
	case extMemoryInit:
		if _, err := s.parseU32(); err != nil { // data idx
			return err
		}
		return s.matchByte(0x00)
	case extDataDrop:
		_, err := s.parseU32()
		return err
	case extMemoryCopy:
		if err := s.matchByte(0x00); err != nil {
			return err
		}
		return s.matchByte(0x00)
	case extMemoryFill:
		return s.matchByte(0x00)
	default:
		return newError(KindGrammar, offset, "unrecognized extended instruction secondary opcode %d", opcode2)
	}
}

func (s *source) parseAtomicInstr() error {
	offset := s.curOffset
	opcode2, err := s.parseU32()
	if err != nil {
		return err
	}
	if opcode2 == atomicFence {
		return s.matchByte(0x00)
	}
	if atomicMemargOpcodes[opcode2] {
		return s.parseMemArg()
	}
	return newError(KindGrammar, offset, "unrecognized atomic instruction secondary opcode %d", opcode2)
}

// parseBlockType reads the blocktype attached to block/loop/if/try:
// 0x40 (empty), a valtype by lookahead, or an s33 type index otherwise.
func (s *source) parseBlockType() error {
	if s.maybeMatchByte(0x40) {
		return nil
	}
	if s.canParseValType() {
		_, err := s.parseValType()
		return err
	}
	_, err := s.parseS33()
	return err
}

func (s *source) parseMemArg() error {
	if _, err := s.parseU32(); err != nil { // align
		return err
	}
	_, err := s.parseU32() // offset
	return err
}

// parseInstrsUntil parses instructions while the lookahead differs from
// delim, without consuming delim itself.
func (s *source) parseInstrsUntil(delim byte) error {
	for !s.atEOF() && s.curByte != delim {
		if err := s.parseInstr(); err != nil {
			return err
		}
	}
	return nil
}

func (s *source) parseInstrsUntilAnyOf(delims ...byte) error {
	for !s.atEOF() {
		for _, d := range delims {
			if s.curByte == d {
				return nil
			}
		}
		if err := s.parseInstr(); err != nil {
			return err
		}
	}
	return nil
}

// parseExpr parses instructions until (and consuming) a terminal "end".
func (s *source) parseExpr() error {
	if err := s.parseInstrsUntil(opEnd); err != nil {
		return err
	}
	return s.matchByte(opEnd)
}
