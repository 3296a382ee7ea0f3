package jsonval

import "testing"

func TestParseRoundTrip(t *testing.T) {
	v, err := Parse([]byte(`{"id":1,"tags":["a","b"],"active":true,"note":null}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v.Kind != KindObject {
		t.Fatalf("Kind = %v, want object", v.Kind)
	}

	id, ok := v.Get("id")
	if !ok || id.Kind != KindNumber || id.N != 1 {
		t.Errorf("id = %+v, ok=%v", id, ok)
	}

	tags, ok := v.Get("tags")
	if !ok || tags.Kind != KindArray || len(tags.Arr) != 2 {
		t.Errorf("tags = %+v, ok=%v", tags, ok)
	}

	if note, ok := v.Get("note"); !ok || note.Kind != KindNull {
		t.Errorf("note = %+v, ok=%v, want null", note, ok)
	}

	if _, ok := v.Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestGetOnNonObjectFails(t *testing.T) {
	if _, ok := Number(1).Get("x"); ok {
		t.Error("Get on a number value should fail")
	}
}

func TestSortedKeysDeterministic(t *testing.T) {
	v := Object(map[string]Value{"b": Number(2), "a": Number(1), "c": Number(3)})
	got := v.SortedKeys()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("SortedKeys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedKeys() = %v, want %v", got, want)
		}
	}
}

func TestIsPrimitive(t *testing.T) {
	if !String("x").IsPrimitive() {
		t.Error("string should be primitive")
	}
	if Array(nil).IsPrimitive() {
		t.Error("array should not be primitive")
	}
	if Object(nil).IsPrimitive() {
		t.Error("object should not be primitive")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	orig := Object(map[string]Value{"n": Number(42), "s": String("hi")})
	b, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	var decoded Value
	if err := decoded.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}

	n, ok := decoded.Get("n")
	if !ok || n.N != 42 {
		t.Errorf("n = %+v, ok=%v", n, ok)
	}
}
