package decode

import (
	"bytes"
	"testing"

	"github.com/patvarilly/wasmtoolbox/internal/wasmfixture"
)

// buildInstrModule wraps body (a function's raw instruction bytes,
// including the terminal 0x0B) in the smallest module that can carry a
// code section: one nullary function type, one declared function, and
// one function body.
func buildInstrModule(t *testing.T, body []byte) []byte {
	t.Helper()
	b := wasmfixture.NewBuilder()
	b.AddSection(&wasmfixture.TypeSection{Types: []*wasmfixture.FuncTypeDef{{}}})
	b.AddSection(&wasmfixture.FunctionSection{TypeIndices: []uint32{0}})
	b.AddSection(&wasmfixture.CodeSection{Funcs: []*wasmfixture.CodeFunc{{Body: body}}})
	data, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return data
}

func decodeInstrModule(t *testing.T, body []byte) error {
	t.Helper()
	_, err := Decode(bytes.NewReader(buildInstrModule(t, body)), nil)
	return err
}

func TestDecodeInstrControlFamilyBrTable(t *testing.T) {
	// block (empty blocktype); br_table with one target and a default,
	// both label 0; end block; end function.
	body := []byte{
		opBlock, 0x40,
		opBrTable, 0x01, 0x00, 0x00,
		opEnd,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeInstrControlFamilyUnterminatedBlockFails(t *testing.T) {
	// block opened but never closed: the function body (and the
	// surrounding code-section framing) runs out of bytes first.
	body := []byte{
		opBlock, 0x40,
		opNop,
	}
	if err := decodeInstrModule(t, body); err == nil {
		t.Fatal("expected error for unterminated block")
	}
}

func TestDecodeInstrNumericFamily(t *testing.T) {
	// i32.const 1; i32.const 2; i32.add; drop; end.
	body := []byte{
		opI32Const, 0x01,
		opI32Const, 0x02,
		0x6A, // i32.add
		opDrop,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeInstrNumericFamilyLEB128OverflowFails(t *testing.T) {
	// i32.const with a 5-byte LEB128 operand whose terminator byte
	// overflows the 32-bit budget.
	body := []byte{
		opI32Const, 0xFF, 0xFF, 0xFF, 0xFF, 0x1F,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err == nil {
		t.Fatal("expected LEB128 overflow error")
	}
}

func TestDecodeInstrMemoryFamily(t *testing.T) {
	// i32.const 0; i32.load align=0 offset=0; drop; end.
	body := []byte{
		opI32Const, 0x00,
		0x28, 0x00, 0x00, // i32.load
		opDrop,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeInstrMemoryFamilyTruncatedMemargFails(t *testing.T) {
	// i32.load's memarg (align, offset) is cut off after the align u32.
	body := []byte{
		opI32Const, 0x00,
		0x28, 0x00,
	}
	if err := decodeInstrModule(t, body); err == nil {
		t.Fatal("expected truncated-memarg error")
	}
}

func TestDecodeInstrExtendedFamily(t *testing.T) {
	// memory.fill: 0xFC, secondary opcode 11, reserved byte; end.
	body := []byte{
		opExtPrefix, extMemoryFill, 0x00,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeInstrExtendedFamilyUnknownSecondaryFails(t *testing.T) {
	body := []byte{
		opExtPrefix, 0x63, // unrecognized secondary opcode
		opEnd,
	}
	if err := decodeInstrModule(t, body); err == nil {
		t.Fatal("expected unrecognized extended secondary opcode error")
	}
}

func TestDecodeInstrAtomicFamily(t *testing.T) {
	// i32.const 0; i32.atomic.load align=0 offset=0; drop; end.
	body := []byte{
		opI32Const, 0x00,
		opAtomPrefix, 0x10, 0x00, 0x00, // i32.atomic.load
		opDrop,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecodeInstrAtomicFamilyUnknownSecondaryFails(t *testing.T) {
	body := []byte{
		opAtomPrefix, 0x7F, // unrecognized atomic secondary opcode
		opEnd,
	}
	if err := decodeInstrModule(t, body); err == nil {
		t.Fatal("expected unrecognized atomic secondary opcode error")
	}
}

func TestDecodeInstrMemoryGrowAndSize(t *testing.T) {
	body := []byte{
		opMemSize, 0x00,
		opMemGrow, 0x00,
		opDrop,
		opDrop,
		opEnd,
	}
	if err := decodeInstrModule(t, body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestDecodeFullModuleAllSections exercises every section builder in
// wasmfixture and checks that decode/sections.go retains the structural
// data SPEC_FULL.md §11.1 calls for, all in the fixed section order.
func TestDecodeFullModuleAllSections(t *testing.T) {
	memMax := uint32(2)

	body := []byte{
		opBlock, 0x40,
		opBrTable, 0x01, 0x00, 0x00,
		opEnd,
		opEnd,
	}

	b := wasmfixture.NewBuilder()
	b.AddSection(&wasmfixture.TypeSection{Types: []*wasmfixture.FuncTypeDef{{}}})
	b.AddSection(&wasmfixture.FunctionSection{TypeIndices: []uint32{0}})
	b.AddSection(&wasmfixture.TableSection{Tables: []*wasmfixture.TableTypeDef{
		{ElemType: wasmfixture.FuncRef{}, Limits: wasmfixture.Limits{Min: 1}},
	}})
	b.AddSection(&wasmfixture.MemorySection{Memories: []*wasmfixture.MemTypeDef{
		{Limits: wasmfixture.Limits{Min: 1, Max: &memMax}},
	}})
	b.AddSection(&wasmfixture.TagSection{TypeIndices: []uint32{0}})
	b.AddSection(&wasmfixture.GlobalSection{Globals: []*wasmfixture.GlobalDef{
		{Type: wasmfixture.I32{}, Mutable: true, Init: []byte{opI32Const, 0x05, opEnd}},
	}})
	b.AddSection(&wasmfixture.ExportSection{Exports: []*wasmfixture.ExportDef{
		{Name: "run", Kind: 0, Idx: 0},
		{Name: "memory", Kind: 2, Idx: 0},
	}})
	b.AddSection(&wasmfixture.StartSection{FuncIdx: 0})
	b.AddSection(&wasmfixture.ElementSection{Segments: []*wasmfixture.ElemSegment{
		{OffsetExpr: []byte{opI32Const, 0x00, opEnd}, FuncIndices: []uint32{0}},
	}})
	b.AddSection(&wasmfixture.DataCountSection{Count: 1})
	b.AddSection(&wasmfixture.CodeSection{Funcs: []*wasmfixture.CodeFunc{{Body: body}}})
	b.AddSection(&wasmfixture.DataSection{Segments: []*wasmfixture.DataSegment{
		{Discriminant: 0, OffsetExpr: []byte{opI32Const, 0x00, opEnd}, Bytes: []byte{1, 2, 3}},
	}})

	data, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	m, err := Decode(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(m.FuncSection) != 1 || m.FuncSection[0] != 0 {
		t.Fatalf("unexpected func section: %+v", m.FuncSection)
	}
	if len(m.Tables) != 1 || m.Tables[0].Limits.Min != 1 {
		t.Fatalf("unexpected tables: %+v", m.Tables)
	}
	if len(m.Memories) != 1 || m.Memories[0].Limits.Max == nil || *m.Memories[0].Limits.Max != 2 {
		t.Fatalf("unexpected memories: %+v", m.Memories)
	}
	if len(m.Tags) != 1 || m.Tags[0] != 0 {
		t.Fatalf("unexpected tags: %+v", m.Tags)
	}
	if len(m.Globals) != 1 || !m.Globals[0].Mutable {
		t.Fatalf("unexpected globals: %+v", m.Globals)
	}
	if len(m.Exports) != 2 || m.Exports[0].Name != "run" || m.Exports[1].Name != "memory" {
		t.Fatalf("unexpected exports: %+v", m.Exports)
	}
	if m.Start == nil || *m.Start != 0 {
		t.Fatalf("unexpected start: %v", m.Start)
	}
	if m.ElementCount != 1 {
		t.Fatalf("unexpected element count: %d", m.ElementCount)
	}
	if m.DataCountDeclared == nil || *m.DataCountDeclared != 1 {
		t.Fatalf("unexpected data count declared: %v", m.DataCountDeclared)
	}
	if len(m.CodeLocalGroups) != 1 || len(m.CodeLocalGroups[0]) != 0 {
		t.Fatalf("unexpected code local groups: %+v", m.CodeLocalGroups)
	}
	if m.DataCount != 1 {
		t.Fatalf("unexpected data count: %d", m.DataCount)
	}
}

// TestDecodeNameSectionAllSubsections exercises the functions/locals/
// globals/data-segments name-map builders added to wasmfixture.
func TestDecodeNameSectionAllSubsections(t *testing.T) {
	b := wasmfixture.NewBuilder()
	b.AddSection(&wasmfixture.NameSection{
		ModuleName:    "m",
		FunctionNames: map[uint32]string{0: "main"},
		LocalNames:    map[uint32]map[uint32]string{0: {0: "x"}},
		GlobalNames:   map[uint32]string{0: "g"},
		DataSegmentNames: map[uint32]string{
			0: "d",
		},
	})
	data, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	m, err := Decode(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Name == nil || *m.Name != "m" {
		t.Fatalf("unexpected module name: %v", m.Name)
	}
	if m.Names == nil {
		t.Fatal("expected name table to be populated")
	}
	if m.Names.Functions[0] != "main" {
		t.Fatalf("unexpected function names: %+v", m.Names.Functions)
	}
	if m.Names.Locals[0][0] != "x" {
		t.Fatalf("unexpected local names: %+v", m.Names.Locals)
	}
	if m.Names.Globals[0] != "g" {
		t.Fatalf("unexpected global names: %+v", m.Names.Globals)
	}
	if m.Names.DataSegments[0] != "d" {
		t.Fatalf("unexpected data segment names: %+v", m.Names.DataSegments)
	}
}
