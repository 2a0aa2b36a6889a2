package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered JSON object.
//
// Values held by an Object (and by lists nested inside it) are restricted to the
// JSON variant: nil, bool, json.Number, string, []any and *Object.
// Other Go numeric types are accepted on Set for convenience and are serialized
// by encoding/json as usual.
type Object struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{fields: orderedmap.New[string, any]()}
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.fields == nil {
		return nil, false
	}
	return o.fields.Get(key)
}

// Set stores value under key. Existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if o.fields == nil {
		o.fields = orderedmap.New[string, any]()
	}
	o.fields.Set(key, value)
}

// Delete removes key from the object.
func (o *Object) Delete(key string) {
	if o.fields == nil {
		return
	}
	o.fields.Delete(key)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil || o.fields == nil {
		return 0
	}
	return o.fields.Len()
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Range(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Range calls fn for every entry in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, value any) bool) {
	if o == nil || o.fields == nil {
		return
	}
	for pair := o.fields.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Object returns the nested object stored under key, if any.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.Get(key)
	if !ok {
		return nil, false
	}
	obj, ok := v.(*Object)
	return obj, ok && obj != nil
}

// String returns the string stored under key, or "" when absent or not a string.
func (o *Object) String(key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)
	return s
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := NewObject()
	o.Range(func(key string, value any) bool {
		out.Set(key, CloneValue(value))
		return true
	})
	return out
}

// Replace swaps the contents of o with the contents of other.
func (o *Object) Replace(other *Object) {
	if other == nil {
		o.fields = orderedmap.New[string, any]()
		return
	}
	o.fields = other.fields
}

// MarshalJSON encodes the object keeping key order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	if o.fields == nil {
		return []byte("{}"), nil
	}
	return o.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	obj, err := DecodeObject(data)
	if err != nil {
		return err
	}
	o.fields = obj.fields
	return nil
}

// CloneValue deep-copies a document value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Equal reports whether two document values are structurally equal.
// Object key order is not significant; numbers compare by their textual form.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		equal := true
		x.Range(func(key string, value any) bool {
			other, ok := y.Get(key)
			if !ok || !Equal(value, other) {
				equal = false
			}
			return equal
		})
		return equal
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case json.Number:
		switch y := b.(type) {
		case json.Number:
			return x == y
		default:
			return fmt.Sprint(x) == fmt.Sprint(y)
		}
	default:
		if n, ok := b.(json.Number); ok {
			return fmt.Sprint(a) == n.String()
		}
		return a == b
	}
}

// ErrNotObject is returned when a document payload is valid JSON but not an object.
var ErrNotObject = errors.New("document is not a JSON object")

// DecodeObject parses data as a JSON object, preserving key order.
func DecodeObject(data []byte) (*Object, error) {
	v, err := DecodeValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return nil, ErrNotObject
	}
	return obj, nil
}

// DecodeValue parses data as a single JSON value, preserving object key order.
func DecodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		// string, json.Number, bool or nil
		return t, nil
	}
}
