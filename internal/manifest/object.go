package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Object is a JSON object that remembers the order of its keys. Values are
// kept as raw JSON, so anything this package does not touch is written back
// exactly as it was parsed (modulo whitespace).
type Object struct {
	fields []field
}

type field struct {
	key   string
	value json.RawMessage
}

var errNotObject = errors.New("not a JSON object")

// Keys returns the keys in document order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.fields))
	for i, f := range o.fields {
		keys[i] = f.key
	}
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.fields)
}

// index returns the position of key. With duplicate keys it is the last
// one, which is the value JSON parsers keep.
func (o *Object) index(key string) int {
	for i := len(o.fields) - 1; i >= 0; i-- {
		if o.fields[i].key == key {
			return i
		}
	}
	return -1
}

// Get returns the raw value stored under key.
func (o *Object) Get(key string) (json.RawMessage, bool) {
	if i := o.index(key); i >= 0 {
		return o.fields[i].value, true
	}
	return nil, false
}

// Set stores value under key. An existing key keeps its position; a new key
// is appended. Get and Set act on the same occurrence of a duplicated key.
func (o *Object) Set(key string, value json.RawMessage) {
	if i := o.index(key); i >= 0 {
		o.fields[i].value = value
		return
	}
	o.fields = append(o.fields, field{key: key, value: value})
}

// SetString stores s under key as a JSON string.
func (o *Object) SetString(key, s string) error {
	raw, err := encode(s)
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// GetObject decodes the object stored under key. A missing key or a JSON
// null yields an empty object.
func (o *Object) GetObject(key string) (*Object, error) {
	raw, ok := o.Get(key)
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return &Object{}, nil
	}
	var child Object
	if err := json.Unmarshal(raw, &child); err != nil {
		return nil, fmt.Errorf("%q: %w", key, err)
	}
	return &child, nil
}

// SetObject stores child under key.
func (o *Object) SetObject(key string, child *Object) error {
	raw, err := child.MarshalJSON()
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	o.fields = o.fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		o.fields = append(o.fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON implements json.Marshaler. The output is compact and does not
// escape HTML characters.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.value); err != nil {
			return nil, fmt.Errorf("encoding %q: %w", f.key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
