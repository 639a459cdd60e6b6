package ast

// Module is the top-level decoded artifact. Name, Types and Imports are
// the subset the specification treats as load-bearing; the remaining
// fields are a structural extension (see SPEC_FULL.md §11.1) retained
// for tooling without changing how any section is framed or ordered.
type Module struct {
	Name *string

	Types   []FuncType
	Imports []Import

	// FuncSection is one type index per function defined in the code
	// section (not counting imported functions).
	FuncSection []uint32

	Tables   []TableType
	Memories []MemType
	Tags     []uint32 // type index per declared exception tag
	Globals  []GlobalType
	Exports  []Export

	// Start is the optional start-function index.
	Start *uint32

	ElementCount int
	DataCount    int
	// CodeLocalGroups[i] is the list of (count, valtype) local
	// declarations for the i'th function body, in source order.
	CodeLocalGroups [][]LocalGroup

	// DataCountDeclared is the section-12 payload, when present, so a
	// caller can cross-check it against DataCount.
	DataCountDeclared *uint32

	Names *NameTable
}

// LocalGroup is one run-length-encoded local-variable declaration
// (n locals of type t) inside a function body.
type LocalGroup struct {
	Count   uint32
	ValType ValType
}

// NewModule returns an empty module ready for a decoder to populate.
func NewModule() *Module {
	return &Module{}
}
