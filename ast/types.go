// Package ast defines the in-memory representation of a decoded WebAssembly
// module: value types, function types, imports, and the handful of
// structural sections this tool retains beyond the bare minimum.
package ast

import "fmt"

// ValType is the closed set of seven value-type tags from the Core spec:
// the four number types, v128, and the two reference types. Numtype,
// vectype and reftype are modeled as the same underlying tag, matching
// the reference parser's own collapsing of these into one enumeration.
type ValType byte

const (
	I32       ValType = 0x7F
	I64       ValType = 0x7E
	F32       ValType = 0x7D
	F64       ValType = 0x7C
	V128      ValType = 0x7B
	FuncRef   ValType = 0x70
	ExternRef ValType = 0x6F
)

func (v ValType) IsNumType() bool {
	switch v {
	case I32, I64, F32, F64:
		return true
	default:
		return false
	}
}

func (v ValType) IsVecType() bool {
	return v == V128
}

func (v ValType) IsRefType() bool {
	return v == FuncRef || v == ExternRef
}

func (v ValType) Valid() bool {
	return v.IsNumType() || v.IsVecType() || v.IsRefType()
}

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	case FuncRef:
		return "funcref"
	case ExternRef:
		return "externref"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

// ResultType is an ordered, possibly-empty sequence of value types, used
// for both function parameters and results.
type ResultType []ValType

// FuncType is a function signature: an ordered pair of result types.
type FuncType struct {
	Params  ResultType
	Results ResultType
}

// Import is a two-part name (module, name) plus the descriptor it was
// declared with. Only the descriptor's kind and, for functions and tags,
// its type index are retained; table/memory limits and global types are
// parsed for framing purposes but not kept (see ImportDesc).
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// ImportDescKind tags which of the five importable external kinds an
// import declares.
type ImportDescKind byte

const (
	ImportFunc ImportDescKind = iota
	ImportTable
	ImportMemory
	ImportGlobal
	ImportTag
)

func (k ImportDescKind) String() string {
	switch k {
	case ImportFunc:
		return "func"
	case ImportTable:
		return "table"
	case ImportMemory:
		return "memory"
	case ImportGlobal:
		return "global"
	case ImportTag:
		return "tag"
	default:
		return fmt.Sprintf("importdesc(%d)", byte(k))
	}
}

// ImportDesc carries the kind tag and, if useful, the underlying type
// index (functions and tags import by type index; tables/memories/
// globals carry their own inline type, which is consumed but not kept).
type ImportDesc struct {
	Kind    ImportDescKind
	TypeIdx uint32 // meaningful for ImportFunc and ImportTag
}

// Limits is the min/max pair read from the binary limits encoding, plus
// the Threads-extension shared flag.
type Limits struct {
	Min    uint32
	Max    *uint32
	Shared bool
}

// TableType pairs an element reference type with its limits.
type TableType struct {
	ElemType ValType
	Limits   Limits
}

// MemType is a memory's limits (pages), including whether it is shared
// (Threads extension), which gates availability of atomic instructions.
type MemType struct {
	Limits Limits
}

// GlobalType is a value type plus mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// ExportDescKind mirrors ImportDescKind for the five exportable kinds
// (func/table/mem/global/tag).
type ExportDescKind byte

const (
	ExportFunc ExportDescKind = iota
	ExportTable
	ExportMemory
	ExportGlobal
	ExportTag
)

func (k ExportDescKind) String() string {
	switch k {
	case ExportFunc:
		return "func"
	case ExportTable:
		return "table"
	case ExportMemory:
		return "memory"
	case ExportGlobal:
		return "global"
	case ExportTag:
		return "tag"
	default:
		return fmt.Sprintf("exportdesc(%d)", byte(k))
	}
}

// Export is a name bound to an index of the given kind.
type Export struct {
	Name string
	Desc ExportDescKind
	Idx  uint32
}

// NameTable holds the extended name section's debug identifier maps,
// keyed by their raw binary index. Only present when a "name" custom
// section was found.
type NameTable struct {
	Functions    map[uint32]string
	Locals       map[uint32]map[uint32]string
	Globals      map[uint32]string
	DataSegments map[uint32]string
}

// NewNameTable returns an empty, ready-to-populate NameTable.
func NewNameTable() *NameTable {
	return &NameTable{
		Functions:    map[uint32]string{},
		Locals:       map[uint32]map[uint32]string{},
		Globals:      map[uint32]string{},
		DataSegments: map[uint32]string{},
	}
}
