package decode

import (
	"bytes"
	"testing"

	"github.com/patvarilly/wasmtoolbox/ast"
	"github.com/patvarilly/wasmtoolbox/internal/wasmfixture"
)

func TestDecodeMinimalModule(t *testing.T) {
	input := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	m, err := Decode(bytes.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != nil {
		t.Fatalf("expected no name, got %q", *m.Name)
	}
	if len(m.Types) != 0 {
		t.Fatalf("expected no types, got %d", len(m.Types))
	}
}

func TestDecodeModuleWithName(t *testing.T) {
	input := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x0D,
		0x04, 'n', 'a', 'm', 'e',
		0x00, 0x06,
		0x05, 'h', 'e', 'l', 'l', 'o',
	}
	m, err := Decode(bytes.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name == nil || *m.Name != "hello" {
		t.Fatalf("expected name %q, got %v", "hello", m.Name)
	}
}

func TestDecodeMissingMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x00, 0x61, 0x73, 0x00}), nil)
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDecodeTrailingData(t *testing.T) {
	input := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00, 0xFF}
	_, err := Decode(bytes.NewReader(input), nil)
	if err == nil {
		t.Fatal("expected trailing-data error")
	}
}

func TestDecodeRoundTripViaFixtureBuilder(t *testing.T) {
	b := wasmfixture.NewBuilder()
	b.AddSection(&wasmfixture.TypeSection{Types: []*wasmfixture.FuncTypeDef{
		{ParamTypes: []wasmfixture.ValueType{wasmfixture.I32{}}, ResultTypes: []wasmfixture.ValueType{wasmfixture.F64{}}},
	}})
	b.AddSection(&wasmfixture.ImportSection{Imports: []*wasmfixture.Import{
		{Module: "env", Name: "f", ImportDesc: &wasmfixture.FuncImport{TypeIdx: 0}},
	}})
	b.AddSection(&wasmfixture.NameSection{ModuleName: "roundtrip"})

	data, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	m, err := Decode(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if m.Name == nil || *m.Name != "roundtrip" {
		t.Fatalf("expected module name roundtrip, got %v", m.Name)
	}
	if len(m.Types) != 1 || len(m.Types[0].Params) != 1 || len(m.Types[0].Results) != 1 ||
		m.Types[0].Params[0] != ast.I32 || m.Types[0].Results[0] != ast.F64 {
		t.Fatalf("unexpected types: %+v", m.Types)
	}
	if len(m.Imports) != 1 || m.Imports[0].Module != "env" || m.Imports[0].Name != "f" ||
		m.Imports[0].Desc != (ast.ImportDesc{Kind: ast.ImportFunc, TypeIdx: 0}) {
		t.Fatalf("unexpected imports: %+v", m.Imports)
	}
}

func TestDecodeUnknownNameSubsectionLogsAndSkips(t *testing.T) {
	input := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x09,
		0x04, 'n', 'a', 'm', 'e',
		0x63, 0x02, 0xAA, 0xBB, // unknown subsection id 0x63, size 2
	}
	var logged []string
	_, err := Decode(bytes.NewReader(input), func(format string, args ...any) {
		logged = append(logged, format)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("expected exactly one log call, got %d", len(logged))
	}
}
