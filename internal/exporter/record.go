package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one row of a record-based export: column keys in insertion
// order, each mapped to a scalar value. Go maps have no order, so the key
// order is tracked explicitly; it defines the default column order.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a record from alternating key, value arguments.
func NewRecord(kv ...any) Record {
	if len(kv)%2 != 0 {
		panic("exporter.NewRecord: odd number of arguments")
	}
	r := Record{}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("exporter.NewRecord: key %v is not a string", kv[i]))
		}
		r.Set(key, kv[i+1])
	}
	return r
}

// Set stores value under key. A new key is appended to the key order.
func (r *Record) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value for key and whether the key is present.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len is the number of keys.
func (r Record) Len() int {
	return len(r.keys)
}

// MarshalJSON writes the record as an object with keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping key order. Numbers are kept
// as json.Number so they print exactly as sent. Nested objects or arrays
// are rejected; record values are scalars.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record key must be a string")
		}

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		if _, nested := tok.(json.Delim); nested {
			return fmt.Errorf("record field %q must be a scalar", key)
		}
		r.Set(key, tok)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
