package domain

import (
	"bytes"
	"encoding/json"
)

// Optional carries one field of a partial update. It distinguishes three
// inputs: absent (leave unchanged), present with null (clear) and present
// with a value (set).
//
// The zero value is absent. When decoding JSON, a missing key leaves the field
// absent and an explicit null produces a present, null Optional.
type Optional[T any] struct {
	value   T
	present bool
	null    bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Null returns a present Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

// Present reports whether the field was supplied at all.
func (o Optional[T]) Present() bool {
	return o.present
}

// IsNull reports whether the field was supplied as null.
func (o Optional[T]) IsNull() bool {
	return o.present && o.null
}

// Get returns the value and whether a non-null value is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present && !o.null
}

// Ptr returns nil for null and a pointer to a copy of the value otherwise.
// It must only be called on a present Optional.
func (o Optional[T]) Ptr() *T {
	if o.null {
		return nil
	}
	v := o.value
	return &v
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}

// MarshalJSON implements json.Marshaler. Absent and null both encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
