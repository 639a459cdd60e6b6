package wat

import (
	"fmt"
	"io"

	"github.com/patvarilly/wasmtoolbox/ast"
)

func (w *Writer) writeValType(vt ast.ValType) error {
	switch vt {
	case ast.I32, ast.I64, ast.F32, ast.F64, ast.V128, ast.FuncRef, ast.ExternRef:
		w.TokKeyword(vt.String())
		return nil
	default:
		return fmt.Errorf("unrecognized valtype %v", vt)
	}
}

// writeFuncType emits `(func (param t...) (result t...))`, omitting
// either sub-list when its result type is empty. This is the sole
// write_functype used in this codebase (SPEC_FULL.md §9): a single
// param/result list of real value types, not placeholder identifiers.
func (w *Writer) writeFuncType(ft ast.FuncType) error {
	w.TokLeftParen()
	w.TokKeyword("func")
	if len(ft.Params) > 0 {
		w.TokLeftParen()
		w.TokKeyword("param")
		for _, p := range ft.Params {
			if err := w.writeValType(p); err != nil {
				return err
			}
		}
		w.TokRightParen()
	}
	if len(ft.Results) > 0 {
		w.TokLeftParen()
		w.TokKeyword("result")
		for _, r := range ft.Results {
			if err := w.writeValType(r); err != nil {
				return err
			}
		}
		w.TokRightParen()
	}
	w.TokRightParen()
	return nil
}

// writeType emits `(type (;n;) functype)` on its own indented line.
func (w *Writer) writeType(idx int, ft ast.FuncType) error {
	w.LexNL()
	w.TokLeftParen()
	w.TokKeyword("type")
	w.LexBlockComment(fmt.Sprintf("%d", idx))
	if err := w.writeFuncType(ft); err != nil {
		return err
	}
	w.TokRightParen()
	return nil
}

// writeImport emits `(import "module" "name")` on its own indented line.
func (w *Writer) writeImport(imp ast.Import) {
	w.LexNL()
	w.TokLeftParen()
	w.TokKeyword("import")
	w.TokName(imp.Module)
	w.TokName(imp.Name)
	w.TokRightParen()
}

// WriteModule emits the full `(module ...)` form for m.
func (w *Writer) WriteModule(m *ast.Module) error {
	w.TokLeftParen()
	w.TokKeyword("module")
	if m.Name != nil {
		if err := w.TokID(*m.Name); err != nil {
			return err
		}
	}
	for i, ft := range m.Types {
		if err := w.writeType(i, ft); err != nil {
			return err
		}
	}
	for _, imp := range m.Imports {
		w.writeImport(imp)
	}
	w.TokRightParen()
	return w.Err()
}

// WriteModule is a convenience wrapper that emits m to w as WAT text.
func WriteModule(dst io.Writer, m *ast.Module) error {
	return NewWriter(dst).WriteModule(m)
}
