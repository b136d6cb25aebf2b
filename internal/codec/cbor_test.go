package codec

import (
	"bytes"
	"testing"
)

type record struct {
	B string `cbor:"2,keyasint"`
	A int64  `cbor:"1,keyasint"`
	M map[string]any
}

func TestMarshalDeterministic(t *testing.T) {
	v := record{B: "x", A: 7, M: map[string]any{"z": 1, "a": 2, "m": 3}}

	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding is not deterministic:\n%x\n%x", first, again)
		}
	}
}

func TestUnmarshalAnyMapUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"nested": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	nested, ok := out["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out["nested"])
	}
	if nested["k"] != "v" {
		t.Fatalf("unexpected nested value: %v", nested)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[int]any{1: int64(3), 2: "b", 9: "future"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var r record
	if err := Unmarshal(data, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.A != 3 || r.B != "b" {
		t.Fatalf("unexpected record: %+v", r)
	}
}
