// Package schema implements the recursive schema descriptor the learner
// maintains per endpoint: a tagged variant walked by one recursive visitor,
// built up from observed jsonval.Value instances and merged across requests.
package schema

import (
	"sort"

	"github.com/mimicgate/mimicgate/internal/jsonval"
)

// Kind tags the variant held by a Descriptor.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
	KindUnion
)

// FormatHint names a recognised string shape (uuid, email, iso-date, url,
// slug, hex, base64). The learner never assigns one: Infer leaves Hint
// empty and Merge only carries an existing hint forward. No other package
// sets it either.
type FormatHint string

const (
	HintNone    FormatHint = ""
	HintUUID    FormatHint = "uuid"
	HintEmail   FormatHint = "email"
	HintISODate FormatHint = "iso-date"
	HintURL     FormatHint = "url"
	HintSlug    FormatHint = "slug"
	HintHex     FormatHint = "hex"
	HintBase64  FormatHint = "base64"
)

// LengthRange bounds the observed element counts of an array.
type LengthRange struct {
	Min int
	Max int
}

// Descriptor is the recursive tagged-union schema node. Only the fields
// relevant to Kind are populated; Count is the number of observations that
// contributed to this node (used by the merger and by the drift detector's
// observation_count gate).
type Descriptor struct {
	Kind     Kind
	Count    int
	Nullable bool
	Hint     FormatHint

	// KindObject
	Fields   map[string]*Descriptor
	Required map[string]struct{}

	// KindArray
	Element *Descriptor
	Length  LengthRange

	// KindUnion
	Variants []*Descriptor
}

func leaf(k Kind) *Descriptor { return &Descriptor{Kind: k, Count: 1} }

// Infer builds a descriptor from a single JSON value. Objects yield a
// field-map whose Required set is every field observed on this one value;
// arrays yield a descriptor over the union of their elements.
func Infer(v jsonval.Value) *Descriptor {
	switch v.Kind {
	case jsonval.KindNull:
		return leaf(KindNull)
	case jsonval.KindBool:
		return leaf(KindBool)
	case jsonval.KindNumber:
		return leaf(KindNumber)
	case jsonval.KindString:
		return leaf(KindString)
	case jsonval.KindArray:
		d := &Descriptor{Kind: KindArray, Count: 1, Length: LengthRange{Min: len(v.Arr), Max: len(v.Arr)}}
		var elem *Descriptor
		for _, e := range v.Arr {
			ed := Infer(e)
			if elem == nil {
				elem = ed
			} else {
				elem = Merge(elem, ed)
			}
		}
		d.Element = elem
		return d
	case jsonval.KindObject:
		d := &Descriptor{
			Kind:     KindObject,
			Count:    1,
			Fields:   make(map[string]*Descriptor, len(v.Obj)),
			Required: make(map[string]struct{}, len(v.Obj)),
		}
		for k, child := range v.Obj {
			d.Fields[k] = Infer(child)
			d.Required[k] = struct{}{}
		}
		return d
	default:
		return leaf(KindNull)
	}
}

// Merge combines two descriptors observed at the same path. Merge is
// idempotent on identical input and associative at the structural level:
// merge(merge(a,b),c) == merge(a,merge(b,c)) ignoring counts.
func Merge(a, b *Descriptor) *Descriptor {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	// null merged with any T -> T with Nullable set, not a top-level union.
	if a.Kind == KindNull && b.Kind != KindNull {
		out := cloneShallow(b)
		out.Nullable = true
		out.Count = a.Count + b.Count
		return out
	}
	if b.Kind == KindNull && a.Kind != KindNull {
		out := cloneShallow(a)
		out.Nullable = true
		out.Count = a.Count + b.Count
		return out
	}

	switch {
	case a.Kind == b.Kind && a.Kind == KindObject:
		return mergeObjects(a, b)
	case a.Kind == b.Kind && a.Kind == KindArray:
		return mergeArrays(a, b)
	case a.Kind == b.Kind:
		// same primitive kind (or both null): sum counts, keep kind/hint.
		out := cloneShallow(a)
		out.Count = a.Count + b.Count
		if out.Hint == HintNone {
			out.Hint = b.Hint
		}
		out.Nullable = a.Nullable || b.Nullable
		return out
	default:
		return mergeUnion(a, b)
	}
}

func mergeObjects(a, b *Descriptor) *Descriptor {
	out := &Descriptor{
		Kind:     KindObject,
		Count:    a.Count + b.Count,
		Nullable: a.Nullable || b.Nullable,
		Fields:   make(map[string]*Descriptor, len(a.Fields)+len(b.Fields)),
		Required: make(map[string]struct{}),
	}
	for k, fa := range a.Fields {
		if fb, ok := b.Fields[k]; ok {
			out.Fields[k] = Merge(fa, fb)
		} else {
			out.Fields[k] = fa
		}
	}
	for k, fb := range b.Fields {
		if _, ok := a.Fields[k]; !ok {
			out.Fields[k] = fb
		}
	}
	// required = intersection: observing one without a field relaxes it.
	for k := range a.Required {
		if _, ok := b.Required[k]; ok {
			out.Required[k] = struct{}{}
		}
	}
	return out
}

func mergeArrays(a, b *Descriptor) *Descriptor {
	out := &Descriptor{
		Kind:     KindArray,
		Count:    a.Count + b.Count,
		Nullable: a.Nullable || b.Nullable,
		Length: LengthRange{
			Min: minInt(a.Length.Min, b.Length.Min),
			Max: maxInt(a.Length.Max, b.Length.Max),
		},
	}
	out.Element = Merge(a.Element, b.Element)
	return out
}

// mergeUnion flattens nested unions and records both branches.
func mergeUnion(a, b *Descriptor) *Descriptor {
	out := &Descriptor{Kind: KindUnion, Count: a.Count + b.Count}
	var variants []*Descriptor
	variants = appendVariant(variants, a)
	variants = appendVariant(variants, b)
	out.Variants = variants
	return out
}

func appendVariant(into []*Descriptor, d *Descriptor) []*Descriptor {
	if d.Kind == KindUnion {
		return append(into, d.Variants...)
	}
	return append(into, d)
}

func cloneShallow(d *Descriptor) *Descriptor {
	c := *d
	return &c
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RequiredNames returns the required field names of an object descriptor,
// sorted for deterministic iteration.
func (d *Descriptor) RequiredNames() []string {
	if d == nil || d.Required == nil {
		return nil
	}
	out := make([]string, 0, len(d.Required))
	for k := range d.Required {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FieldNames returns the object field names, sorted for deterministic
// iteration, or nil if this isn't an object descriptor.
func (d *Descriptor) FieldNames() []string {
	if d == nil || d.Fields == nil {
		return nil
	}
	out := make([]string, 0, len(d.Fields))
	for k := range d.Fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
