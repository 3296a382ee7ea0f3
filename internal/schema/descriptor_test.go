package schema

import (
	"testing"

	"github.com/mimicgate/mimicgate/internal/jsonval"
)

func obj(fields map[string]jsonval.Value) jsonval.Value {
	return jsonval.Object(fields)
}

func TestInferObject(t *testing.T) {
	v := obj(map[string]jsonval.Value{
		"a": jsonval.Number(1),
		"b": jsonval.String("x"),
	})
	d := Infer(v)
	if d.Kind != KindObject {
		t.Fatalf("expected object kind, got %v", d.Kind)
	}
	if len(d.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(d.Required))
	}
}

func TestMergeRelaxesRequired(t *testing.T) {
	a := Infer(obj(map[string]jsonval.Value{"a": jsonval.Number(1), "b": jsonval.Number(2)}))
	b := Infer(obj(map[string]jsonval.Value{"a": jsonval.Number(1)}))
	m := Merge(a, b)
	if _, ok := m.Required["a"]; !ok {
		t.Errorf("a should remain required")
	}
	if _, ok := m.Required["b"]; ok {
		t.Errorf("b should have been relaxed to optional")
	}
	if len(m.Fields) != 2 {
		t.Errorf("expected 2 fields in merged descriptor, got %d", len(m.Fields))
	}
}

func TestMergeAssociative(t *testing.T) {
	a := Infer(obj(map[string]jsonval.Value{"a": jsonval.Number(1)}))
	b := Infer(obj(map[string]jsonval.Value{"b": jsonval.String("x")}))
	c := Infer(obj(map[string]jsonval.Value{"c": jsonval.Bool(true)}))

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	if len(left.Fields) != len(right.Fields) {
		t.Fatalf("field count differs: %d vs %d", len(left.Fields), len(right.Fields))
	}
	for k := range left.Fields {
		if _, ok := right.Fields[k]; !ok {
			t.Errorf("field %q missing from right-associated merge", k)
		}
	}
}

func TestMergeNullBecomesNullable(t *testing.T) {
	a := Infer(jsonval.Null())
	b := Infer(jsonval.String("hi"))
	m := Merge(a, b)
	if m.Kind != KindString {
		t.Fatalf("expected string kind, got %v", m.Kind)
	}
	if !m.Nullable {
		t.Errorf("expected nullable flag to be set")
	}
}

func TestMergeDifferentKindsProducesUnion(t *testing.T) {
	a := Infer(jsonval.Number(1))
	b := Infer(jsonval.String("x"))
	m := Merge(a, b)
	if m.Kind != KindUnion {
		t.Fatalf("expected union, got %v", m.Kind)
	}
	if len(m.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(m.Variants))
	}
}

func TestMergeFlattensNestedUnions(t *testing.T) {
	a := Merge(Infer(jsonval.Number(1)), Infer(jsonval.String("x")))
	b := Infer(jsonval.Bool(true))
	m := Merge(a, b)
	if m.Kind != KindUnion {
		t.Fatalf("expected union, got %v", m.Kind)
	}
	if len(m.Variants) != 3 {
		t.Fatalf("expected flattened union of 3, got %d", len(m.Variants))
	}
}

func TestInferArrayLengthRange(t *testing.T) {
	v := jsonval.Array([]jsonval.Value{jsonval.Number(1), jsonval.Number(2), jsonval.Number(3)})
	d := Infer(v)
	if d.Length.Min != 3 || d.Length.Max != 3 {
		t.Errorf("unexpected length range: %+v", d.Length)
	}
}

func TestDetectFormatHint(t *testing.T) {
	cases := map[string]FormatHint{
		"550e8400-e29b-41d4-a716-446655440000": HintUUID,
		"a@b.com":                              HintEmail,
		"2024-01-02T03:04:05Z":                 HintISODate,
		"https://example.com/x":                HintURL,
		"my-first-slug":                        HintSlug,
		"plain text here":                      HintNone,
	}
	for in, want := range cases {
		if got := DetectFormatHint(in); got != want {
			t.Errorf("DetectFormatHint(%q) = %q, want %q", in, got, want)
		}
	}
}
