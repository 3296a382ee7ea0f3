package generate

import (
	"math/rand"
	"testing"

	"github.com/mimicgate/mimicgate/internal/jsonval"
	"github.com/mimicgate/mimicgate/internal/schema"
)

func newSeeded() *Generator {
	return &Generator{Rand: rand.New(rand.NewSource(1))}
}

func TestGenerateProducesRequiredFields(t *testing.T) {
	sample := jsonval.Object(map[string]jsonval.Value{
		"id":    jsonval.Number(1),
		"email": jsonval.String("a@b.com"),
		"name":  jsonval.String("Alice"),
	})
	d := schema.Infer(sample)
	g := newSeeded()
	out := g.Generate(d, jsonval.Null())
	if out.Kind != jsonval.KindObject {
		t.Fatalf("expected object output, got %v", out.Kind)
	}
	for _, field := range []string{"id", "email", "name"} {
		if _, ok := out.Get(field); !ok {
			t.Errorf("expected generated output to contain field %q", field)
		}
	}
}

func TestEchoRule(t *testing.T) {
	sample := jsonval.Object(map[string]jsonval.Value{"email": jsonval.String("a@b.com")})
	d := schema.Infer(sample)
	req := jsonval.Object(map[string]jsonval.Value{"email": jsonval.String("z@z.com")})

	g := newSeeded()
	out := g.Generate(d, req)
	got, ok := out.Get("email")
	if !ok || got.S != "z@z.com" {
		t.Fatalf("expected echoed email z@z.com, got %+v", got)
	}
}

func TestEchoRuleFindsFieldAtDifferentDepth(t *testing.T) {
	sample := jsonval.Object(map[string]jsonval.Value{"email": jsonval.String("a@b.com")})
	d := schema.Infer(sample)
	req := jsonval.Object(map[string]jsonval.Value{
		"user": jsonval.Object(map[string]jsonval.Value{
			"email": jsonval.String("nested@z.com"),
		}),
	})

	g := newSeeded()
	out := g.Generate(d, req)
	got, ok := out.Get("email")
	if !ok || got.S != "nested@z.com" {
		t.Fatalf("expected echoed email nested@z.com from nested request field, got %+v", got)
	}
}

func TestGenerateArrayRespectsUpperBound(t *testing.T) {
	sample := jsonval.Array([]jsonval.Value{jsonval.Number(1)})
	d := schema.Infer(sample)
	g := newSeeded()
	out := g.Generate(d, jsonval.Null())
	if out.Kind != jsonval.KindArray {
		t.Fatalf("expected array, got %v", out.Kind)
	}
	if len(out.Arr) < 1 {
		t.Errorf("expected at least one element")
	}
	if len(out.Arr) > 1 {
		t.Errorf("expected at most one element for an observed length of 1, got %d", len(out.Arr))
	}
}

func TestEmailHeuristicShape(t *testing.T) {
	sample := jsonval.Object(map[string]jsonval.Value{"email": jsonval.String("x@y.com")})
	d := schema.Infer(sample)
	g := newSeeded()
	out := g.Generate(d, jsonval.Null())
	email, _ := out.Get("email")
	if email.Kind != jsonval.KindString {
		t.Fatalf("expected string email")
	}
}
