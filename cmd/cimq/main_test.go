package main

import (
	"errors"
	"testing"

	cimcore "github.com/smnsjas/go-cimcore"
	"github.com/smnsjas/go-cimcore/cim"
	"github.com/smnsjas/go-cimcore/engine"
	"github.com/smnsjas/go-cimcore/memengine"
)

const storeYAML = `
namespaces:
  root/test:
    classes:
      - name: Widget
        properties:
          - name: Name
            type: string
            key: true
          - name: Size
            type: uint32
            default: 1
`

func newTestApplication(t *testing.T) *cimcore.Application {
	t.Helper()
	store, err := memengine.Parse([]byte(storeYAML))
	if err != nil {
		t.Fatalf("parse store: %v", err)
	}
	eng, err := memengine.New(store)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	application, err := cimcore.NewApplication(eng)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	t.Cleanup(func() { application.Close() })
	return application
}

func TestBuildInputSetsAndAdds(t *testing.T) {
	application := newTestApplication(t)

	in, err := buildInput(application, "Widget", []string{"Name=w9", "Force=true", "Count=7"})
	if err != nil {
		t.Fatalf("buildInput failed: %v", err)
	}
	defer in.Close()

	name, err := in.GetElement("Name")
	if err != nil || name.Value != "w9" {
		t.Errorf("Name = %+v, %v", name, err)
	}
	force, err := in.GetElement("Force")
	if err != nil || force.Value != true || force.Type != cim.TypeBoolean {
		t.Errorf("Force = %+v, %v", force, err)
	}
	count, err := in.GetElement("Count")
	if err != nil || count.Value != int64(7) || count.Type != cim.TypeSint64 {
		t.Errorf("Count = %+v, %v", count, err)
	}
}

func TestBuildInputRetriesDeclaredIntegerType(t *testing.T) {
	application := newTestApplication(t)

	// "5" parses as sint64 but Size is declared uint32; the value still
	// fits, so it must land as the declared type.
	in, err := buildInput(application, "Widget", []string{"Size=5"})
	if err != nil {
		t.Fatalf("buildInput failed: %v", err)
	}
	defer in.Close()

	size, err := in.GetElement("Size")
	if err != nil {
		t.Fatalf("GetElement failed: %v", err)
	}
	if size.Value != uint32(5) || size.Type != cim.TypeUint32 {
		t.Errorf("Size = %+v, want uint32(5)", size)
	}
}

func TestBuildInputReportsTypeMismatch(t *testing.T) {
	application := newTestApplication(t)

	// A value that fits neither the parsed nor the declared type must
	// surface the mismatch, not a duplicate-element error from a blind
	// AddElement fallback.
	_, err := buildInput(application, "Widget", []string{"Size=big"})
	if !errors.Is(err, engine.ErrTypeMismatch) {
		t.Errorf("got %v, want ErrTypeMismatch", err)
	}
	if errors.Is(err, engine.ErrDuplicateElement) {
		t.Error("mismatch masked as a duplicate element")
	}

	_, err = buildInput(application, "Widget", []string{"Size=-3"})
	if !errors.Is(err, engine.ErrTypeMismatch) {
		t.Errorf("negative out-of-range: got %v, want ErrTypeMismatch", err)
	}
}

func TestBuildInputRejectsMalformedPair(t *testing.T) {
	application := newTestApplication(t)

	for _, bad := range []string{"Size", "=5", ""} {
		if _, err := buildInput(application, "Widget", []string{bad}); err == nil {
			t.Errorf("pair %q: expected error", bad)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw   string
		value any
		typ   cim.Type
	}{
		{"true", true, cim.TypeBoolean},
		{"false", false, cim.TypeBoolean},
		{"42", int64(42), cim.TypeSint64},
		{"-7", int64(-7), cim.TypeSint64},
		{"hello", "hello", cim.TypeString},
		{"4.2", "4.2", cim.TypeString},
	}
	for _, tc := range tests {
		value, typ := parseValue(tc.raw)
		if value != tc.value || typ != tc.typ {
			t.Errorf("parseValue(%q) = %v (%s), want %v (%s)", tc.raw, value, typ, tc.value, tc.typ)
		}
	}
}
