package schema

import (
	"encoding/json"
	"fmt"
)

// String renders the Kind as the lowercase tag used by the persisted
// layout and by drift narration.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindUnion:
		return "union"
	default:
		return "unknown"
	}
}

func kindFromString(s string) (Kind, error) {
	switch s {
	case "null":
		return KindNull, nil
	case "boolean":
		return KindBool, nil
	case "number":
		return KindNumber, nil
	case "string":
		return KindString, nil
	case "object":
		return KindObject, nil
	case "array":
		return KindArray, nil
	case "union":
		return KindUnion, nil
	default:
		return 0, fmt.Errorf("schema: unknown kind %q", s)
	}
}

// wireDescriptor mirrors the persisted tagged form:
// {"kind":"object","fields":{...},"required":[...],"count":N}
type wireDescriptor struct {
	Kind     string                     `json:"kind"`
	Count    int                        `json:"count"`
	Nullable bool                       `json:"nullable,omitempty"`
	Hint     FormatHint                 `json:"hint,omitempty"`
	Fields   map[string]*wireDescriptor `json:"fields,omitempty"`
	Required []string                   `json:"required,omitempty"`
	Element  *wireDescriptor            `json:"element,omitempty"`
	Length   *LengthRange               `json:"length,omitempty"`
	Variants []*wireDescriptor          `json:"variants,omitempty"`
}

// MarshalJSON serializes the descriptor into the persisted tagged form.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return json.Marshal(toWire(d))
}

func toWire(d *Descriptor) *wireDescriptor {
	if d == nil {
		return nil
	}
	w := &wireDescriptor{
		Kind:     d.Kind.String(),
		Count:    d.Count,
		Nullable: d.Nullable,
		Hint:     d.Hint,
	}
	if d.Kind == KindObject {
		w.Fields = make(map[string]*wireDescriptor, len(d.Fields))
		for k, v := range d.Fields {
			w.Fields[k] = toWire(v)
		}
		w.Required = d.RequiredNames()
	}
	if d.Kind == KindArray {
		w.Element = toWire(d.Element)
		length := d.Length
		w.Length = &length
	}
	if d.Kind == KindUnion {
		w.Variants = make([]*wireDescriptor, 0, len(d.Variants))
		for _, v := range d.Variants {
			w.Variants = append(w.Variants, toWire(v))
		}
	}
	return w
}

// UnmarshalJSON parses the persisted tagged form back into a Descriptor.
func (d *Descriptor) UnmarshalJSON(b []byte) error {
	var w wireDescriptor
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	parsed, err := fromWire(&w)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func fromWire(w *wireDescriptor) (*Descriptor, error) {
	if w == nil {
		return nil, nil
	}
	kind, err := kindFromString(w.Kind)
	if err != nil {
		return nil, err
	}
	d := &Descriptor{
		Kind:     kind,
		Count:    w.Count,
		Nullable: w.Nullable,
		Hint:     w.Hint,
	}
	if kind == KindObject {
		d.Fields = make(map[string]*Descriptor, len(w.Fields))
		for k, v := range w.Fields {
			fd, err := fromWire(v)
			if err != nil {
				return nil, err
			}
			d.Fields[k] = fd
		}
		d.Required = make(map[string]struct{}, len(w.Required))
		for _, name := range w.Required {
			d.Required[name] = struct{}{}
		}
	}
	if kind == KindArray {
		elem, err := fromWire(w.Element)
		if err != nil {
			return nil, err
		}
		d.Element = elem
		if w.Length != nil {
			d.Length = *w.Length
		}
	}
	if kind == KindUnion {
		d.Variants = make([]*Descriptor, 0, len(w.Variants))
		for _, v := range w.Variants {
			vd, err := fromWire(v)
			if err != nil {
				return nil, err
			}
			d.Variants = append(d.Variants, vd)
		}
	}
	return d, nil
}
