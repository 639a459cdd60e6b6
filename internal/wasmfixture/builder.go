// Package wasmfixture builds literal WebAssembly binary modules in Go,
// for use as decoder test fixtures. Adapted from this repository's own
// teacher-era binary encoder: the section/type/import/export writers are
// unchanged in shape, trimmed down to what the decoder's test suite
// needs and with the wazero-specific value-type bridge removed (nothing
// here instantiates or executes a module).
package wasmfixture

import (
	"bytes"
	"io"
	"sort"
)

// Builder accumulates sections and serializes them into a full binary
// module, magic and version included.
type Builder struct {
	sections []Section
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) AddSection(section Section) {
	b.sections = append(b.sections, section)
}

func (b *Builder) Build() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x61, 0x73, 0x6D})
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00})
	for _, section := range b.sections {
		if err := section.writeSection(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

type Section interface {
	writeSection(w writer) error
}

type writer interface {
	io.Writer
	io.ByteWriter
}

func writeLEB128(w writer, value uint32) error {
	for {
		b := byte(value & 0x7F)
		value >>= 7
		if value != 0 {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if value == 0 {
			break
		}
	}
	return nil
}

func writeName(w writer, s string) error {
	if err := writeLEB128(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func writeFramedSection(w writer, id byte, contents *bytes.Buffer) error {
	if err := w.WriteByte(id); err != nil {
		return err
	}
	if err := writeLEB128(w, uint32(contents.Len())); err != nil {
		return err
	}
	_, err := w.Write(contents.Bytes())
	return err
}

// ValueType is any of the seven core value-type tags.
type ValueType interface {
	writeType(w writer) error
}

type I32 struct{}
type I64 struct{}
type F32 struct{}
type F64 struct{}
type V128 struct{}
type FuncRef struct{}
type ExternRef struct{}

func (I32) writeType(w writer) error       { return w.WriteByte(0x7F) }
func (I64) writeType(w writer) error       { return w.WriteByte(0x7E) }
func (F32) writeType(w writer) error       { return w.WriteByte(0x7D) }
func (F64) writeType(w writer) error       { return w.WriteByte(0x7C) }
func (V128) writeType(w writer) error      { return w.WriteByte(0x7B) }
func (FuncRef) writeType(w writer) error   { return w.WriteByte(0x70) }
func (ExternRef) writeType(w writer) error { return w.WriteByte(0x6F) }

// FuncTypeDef is one entry of the type section.
type FuncTypeDef struct {
	ParamTypes  []ValueType
	ResultTypes []ValueType
}

func (f *FuncTypeDef) writeType(w writer) error {
	if err := w.WriteByte(0x60); err != nil {
		return err
	}
	if err := writeLEB128(w, uint32(len(f.ParamTypes))); err != nil {
		return err
	}
	for _, pt := range f.ParamTypes {
		if err := pt.writeType(w); err != nil {
			return err
		}
	}
	if err := writeLEB128(w, uint32(len(f.ResultTypes))); err != nil {
		return err
	}
	for _, rt := range f.ResultTypes {
		if err := rt.writeType(w); err != nil {
			return err
		}
	}
	return nil
}

type TypeSection struct {
	Types []*FuncTypeDef
}

func (ts *TypeSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(ts.Types))); err != nil {
		return err
	}
	for _, t := range ts.Types {
		if err := t.writeType(&contents); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 1, &contents)
}

// ImportDesc is any of the five import descriptor kinds.
type ImportDesc interface {
	writeImportDesc(w writer) error
}

type FuncImport struct{ TypeIdx uint32 }

func (f *FuncImport) writeImportDesc(w writer) error {
	if err := w.WriteByte(0); err != nil {
		return err
	}
	return writeLEB128(w, f.TypeIdx)
}

type Import struct {
	Module     string
	Name       string
	ImportDesc ImportDesc
}

type ImportSection struct {
	Imports []*Import
}

func (is *ImportSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(is.Imports))); err != nil {
		return err
	}
	for _, imp := range is.Imports {
		if err := writeName(&contents, imp.Module); err != nil {
			return err
		}
		if err := writeName(&contents, imp.Name); err != nil {
			return err
		}
		if err := imp.ImportDesc.writeImportDesc(&contents); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 2, &contents)
}

// NameSection builds the extended name section. ModuleName is written as
// subsection 0 only when non-empty (a module name is never legitimately
// empty per the AST's own invariant); the remaining maps are each
// written as their own subsection only when populated, so a test can
// exercise exactly one name-subsection kind without the others.
type NameSection struct {
	ModuleName       string
	FunctionNames    map[uint32]string
	LocalNames       map[uint32]map[uint32]string
	GlobalNames      map[uint32]string
	DataSegmentNames map[uint32]string
}

func writeNameMap(m map[uint32]string) (*bytes.Buffer, error) {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var buf bytes.Buffer
	if err := writeLEB128(&buf, uint32(len(keys))); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := writeLEB128(&buf, k); err != nil {
			return nil, err
		}
		if err := writeName(&buf, m[k]); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

func writeIndirectNameMap(m map[uint32]map[uint32]string) (*bytes.Buffer, error) {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var buf bytes.Buffer
	if err := writeLEB128(&buf, uint32(len(keys))); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := writeLEB128(&buf, k); err != nil {
			return nil, err
		}
		inner, err := writeNameMap(m[k])
		if err != nil {
			return nil, err
		}
		if _, err := buf.Write(inner.Bytes()); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

func (ns *NameSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeName(&contents, "name"); err != nil {
		return err
	}

	writeSub := func(id byte, body *bytes.Buffer) error {
		if err := contents.WriteByte(id); err != nil {
			return err
		}
		if err := writeLEB128(&contents, uint32(body.Len())); err != nil {
			return err
		}
		_, err := contents.Write(body.Bytes())
		return err
	}

	if ns.ModuleName != "" {
		var sub bytes.Buffer
		if err := writeName(&sub, ns.ModuleName); err != nil {
			return err
		}
		if err := writeSub(0, &sub); err != nil {
			return err
		}
	}
	if len(ns.FunctionNames) > 0 {
		sub, err := writeNameMap(ns.FunctionNames)
		if err != nil {
			return err
		}
		if err := writeSub(1, sub); err != nil {
			return err
		}
	}
	if len(ns.LocalNames) > 0 {
		sub, err := writeIndirectNameMap(ns.LocalNames)
		if err != nil {
			return err
		}
		if err := writeSub(2, sub); err != nil {
			return err
		}
	}
	if len(ns.GlobalNames) > 0 {
		sub, err := writeNameMap(ns.GlobalNames)
		if err != nil {
			return err
		}
		if err := writeSub(7, sub); err != nil {
			return err
		}
	}
	if len(ns.DataSegmentNames) > 0 {
		sub, err := writeNameMap(ns.DataSegmentNames)
		if err != nil {
			return err
		}
		if err := writeSub(9, sub); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 0, &contents)
}

// FunctionSection is the function section: one type index per function
// defined in the code section.
type FunctionSection struct {
	TypeIndices []uint32
}

func (fs *FunctionSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(fs.TypeIndices))); err != nil {
		return err
	}
	for _, idx := range fs.TypeIndices {
		if err := writeLEB128(&contents, idx); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 3, &contents)
}

// Limits is the min/max/shared limits encoding shared by table and
// memory types.
type Limits struct {
	Min    uint32
	Max    *uint32
	Shared bool
}

func (l Limits) writeLimits(w writer) error {
	var flag byte
	switch {
	case l.Max != nil && l.Shared:
		flag = 0x03
	case l.Max != nil:
		flag = 0x01
	case l.Shared:
		flag = 0x02
	default:
		flag = 0x00
	}
	if err := w.WriteByte(flag); err != nil {
		return err
	}
	if err := writeLEB128(w, l.Min); err != nil {
		return err
	}
	if l.Max != nil {
		return writeLEB128(w, *l.Max)
	}
	return nil
}

// TableTypeDef pairs an element reference type with its limits.
type TableTypeDef struct {
	ElemType ValueType
	Limits   Limits
}

type TableSection struct {
	Tables []*TableTypeDef
}

func (ts *TableSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(ts.Tables))); err != nil {
		return err
	}
	for _, t := range ts.Tables {
		if err := t.ElemType.writeType(&contents); err != nil {
			return err
		}
		if err := t.Limits.writeLimits(&contents); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 4, &contents)
}

type MemTypeDef struct {
	Limits Limits
}

type MemorySection struct {
	Memories []*MemTypeDef
}

func (ms *MemorySection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(ms.Memories))); err != nil {
		return err
	}
	for _, m := range ms.Memories {
		if err := m.Limits.writeLimits(&contents); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 5, &contents)
}

// TagSection is the Exception Handling proposal's tag section: one type
// index per declared tag, each preceded by a reserved zero byte.
type TagSection struct {
	TypeIndices []uint32
}

func (ts *TagSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(ts.TypeIndices))); err != nil {
		return err
	}
	for _, idx := range ts.TypeIndices {
		if err := contents.WriteByte(0x00); err != nil {
			return err
		}
		if err := writeLEB128(&contents, idx); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 13, &contents)
}

// GlobalDef is a global's type plus its constant-expression initializer,
// encoded as raw instruction bytes including the terminal 0x0B.
type GlobalDef struct {
	Type    ValueType
	Mutable bool
	Init    []byte
}

type GlobalSection struct {
	Globals []*GlobalDef
}

func (gs *GlobalSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(gs.Globals))); err != nil {
		return err
	}
	for _, g := range gs.Globals {
		if err := g.Type.writeType(&contents); err != nil {
			return err
		}
		mut := byte(0)
		if g.Mutable {
			mut = 1
		}
		if err := contents.WriteByte(mut); err != nil {
			return err
		}
		if _, err := contents.Write(g.Init); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 6, &contents)
}

// ExportDef is a name bound to an index of the given kind (0=func,
// 1=table, 2=mem, 3=global, 4=tag).
type ExportDef struct {
	Name string
	Kind byte
	Idx  uint32
}

type ExportSection struct {
	Exports []*ExportDef
}

func (es *ExportSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(es.Exports))); err != nil {
		return err
	}
	for _, e := range es.Exports {
		if err := writeName(&contents, e.Name); err != nil {
			return err
		}
		if err := contents.WriteByte(e.Kind); err != nil {
			return err
		}
		if err := writeLEB128(&contents, e.Idx); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 7, &contents)
}

type StartSection struct {
	FuncIdx uint32
}

func (ss *StartSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, ss.FuncIdx); err != nil {
		return err
	}
	return writeFramedSection(w, 8, &contents)
}

// ElemSegment is an active, implicit-table-0 element segment
// (discriminant 0, the only one the decoder supports): an offset
// expression (raw instruction bytes including the terminal 0x0B)
// followed by the function indices it initializes the table with.
type ElemSegment struct {
	OffsetExpr  []byte
	FuncIndices []uint32
}

type ElementSection struct {
	Segments []*ElemSegment
}

func (es *ElementSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(es.Segments))); err != nil {
		return err
	}
	for _, seg := range es.Segments {
		if err := writeLEB128(&contents, 0); err != nil { // discriminant 0
			return err
		}
		if _, err := contents.Write(seg.OffsetExpr); err != nil {
			return err
		}
		if err := writeLEB128(&contents, uint32(len(seg.FuncIndices))); err != nil {
			return err
		}
		for _, idx := range seg.FuncIndices {
			if err := writeLEB128(&contents, idx); err != nil {
				return err
			}
		}
	}
	return writeFramedSection(w, 9, &contents)
}

// CodeFunc is one function body: a vector of run-length-encoded local
// declarations followed by raw instruction bytes (Body), which must
// include the function's terminal 0x0B.
type CodeFunc struct {
	Locals []LocalDecl
	Body   []byte
}

type LocalDecl struct {
	Count uint32
	Type  ValueType
}

func (f *CodeFunc) writeFunc() (*bytes.Buffer, error) {
	var body bytes.Buffer
	if err := writeLEB128(&body, uint32(len(f.Locals))); err != nil {
		return nil, err
	}
	for _, l := range f.Locals {
		if err := writeLEB128(&body, l.Count); err != nil {
			return nil, err
		}
		if err := l.Type.writeType(&body); err != nil {
			return nil, err
		}
	}
	if _, err := body.Write(f.Body); err != nil {
		return nil, err
	}
	return &body, nil
}

type CodeSection struct {
	Funcs []*CodeFunc
}

func (cs *CodeSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(cs.Funcs))); err != nil {
		return err
	}
	for _, f := range cs.Funcs {
		body, err := f.writeFunc()
		if err != nil {
			return err
		}
		if err := writeLEB128(&contents, uint32(body.Len())); err != nil {
			return err
		}
		if _, err := contents.Write(body.Bytes()); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 10, &contents)
}

// DataSegment is one data-section entry: discriminant 0 (active,
// implicit memory 0), 1 (passive), or 2 (active, explicit memory),
// matching the decoder's coverage. OffsetExpr (raw instruction bytes
// including the terminal 0x0B) is only meaningful for discriminants 0
// and 2.
type DataSegment struct {
	Discriminant uint32
	MemIdx       uint32
	OffsetExpr   []byte
	Bytes        []byte
}

type DataSection struct {
	Segments []*DataSegment
}

func (ds *DataSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, uint32(len(ds.Segments))); err != nil {
		return err
	}
	for _, seg := range ds.Segments {
		if err := writeLEB128(&contents, seg.Discriminant); err != nil {
			return err
		}
		switch seg.Discriminant {
		case 0:
			if _, err := contents.Write(seg.OffsetExpr); err != nil {
				return err
			}
		case 2:
			if err := writeLEB128(&contents, seg.MemIdx); err != nil {
				return err
			}
			if _, err := contents.Write(seg.OffsetExpr); err != nil {
				return err
			}
		}
		if err := writeLEB128(&contents, uint32(len(seg.Bytes))); err != nil {
			return err
		}
		if _, err := contents.Write(seg.Bytes); err != nil {
			return err
		}
	}
	return writeFramedSection(w, 11, &contents)
}

type DataCountSection struct {
	Count uint32
}

func (dc *DataCountSection) writeSection(w writer) error {
	var contents bytes.Buffer
	if err := writeLEB128(&contents, dc.Count); err != nil {
		return err
	}
	return writeFramedSection(w, 12, &contents)
}
