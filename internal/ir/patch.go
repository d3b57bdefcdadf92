package ir

import (
	"bytes"
	"encoding/json"
)

type fieldState uint8

const (
	fieldUnchanged fieldState = iota
	fieldClear
	fieldSet
)

// Field is one slot of a metadata patch. A Field is Unchanged (the zero
// value), Clear, or Set(value).
//
// JSON mapping: an absent key decodes to Unchanged, null to Clear and any
// other value to Set. Use the omitzero tag option so Unchanged fields are
// omitted when encoding.
type Field[T any] struct {
	state fieldState
	value T
}

// Unchanged returns a field that leaves the stored value untouched.
func Unchanged[T any]() Field[T] {
	return Field[T]{}
}

// Clear returns a field that removes the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{state: fieldClear}
}

// Set returns a field that replaces the stored value with v.
func Set[T any](v T) Field[T] {
	return Field[T]{state: fieldSet, value: v}
}

// IsUnchanged reports whether the field leaves the stored value untouched.
func (f Field[T]) IsUnchanged() bool { return f.state == fieldUnchanged }

// IsClear reports whether the field removes the stored value.
func (f Field[T]) IsClear() bool { return f.state == fieldClear }

// Value returns the value and true if the field is Set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.state == fieldSet
}

// IsZero is used by encoding/json's omitzero option.
func (f Field[T]) IsZero() bool { return f.state == fieldUnchanged }

// MarshalJSON encodes Set fields as their value and everything else as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.state != fieldSet {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as Clear and any other value as Set.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}

// MetadataPatch is a partial NameMetadata update.
type MetadataPatch struct {
	Title       Field[string]   `json:"title,omitzero"`
	Description Field[string]   `json:"description,omitzero"`
	Favicon     Field[string]   `json:"favicon,omitzero"`
	Logo        Field[string]   `json:"logo,omitzero"`
	Keywords    Field[[]string] `json:"keywords,omitzero"`
}

// IsEmpty reports whether every field of the patch is Unchanged.
func (p MetadataPatch) IsEmpty() bool {
	return p.Title.IsUnchanged() &&
		p.Description.IsUnchanged() &&
		p.Favicon.IsUnchanged() &&
		p.Logo.IsUnchanged() &&
		p.Keywords.IsUnchanged()
}

// Apply merges the patch into m and returns the result. m is not modified.
//
// Keywords are the one field where clearing keeps a value: Clear and
// Set(empty) both store an explicitly empty list, which is distinct from a
// list that was never set.
func (p MetadataPatch) Apply(m NameMetadata) NameMetadata {
	out := m.Clone()
	out.Title = applyString(p.Title, out.Title)
	out.Description = applyString(p.Description, out.Description)
	out.Favicon = applyString(p.Favicon, out.Favicon)
	out.Logo = applyString(p.Logo, out.Logo)

	switch {
	case p.Keywords.IsClear():
		out.Keywords = []string{}
	default:
		if kw, ok := p.Keywords.Value(); ok {
			out.Keywords = append([]string{}, kw...)
		}
	}
	return out
}

// PatchFromMetadata builds a patch that sets every field present in m.
// Registration validates caller-supplied metadata through it.
func PatchFromMetadata(m NameMetadata) MetadataPatch {
	var p MetadataPatch
	if m.Title != nil {
		p.Title = Set(*m.Title)
	}
	if m.Description != nil {
		p.Description = Set(*m.Description)
	}
	if m.Favicon != nil {
		p.Favicon = Set(*m.Favicon)
	}
	if m.Logo != nil {
		p.Logo = Set(*m.Logo)
	}
	if m.Keywords != nil {
		p.Keywords = Set(m.Keywords)
	}
	return p
}

func applyString(f Field[string], current *string) *string {
	if f.IsClear() {
		return nil
	}
	if v, ok := f.Value(); ok {
		return &v
	}
	return current
}
