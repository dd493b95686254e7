package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/joseph-ayodele/policy-extract/constants"
)

// Record holds one string per schema field. The key set is the field schema
// by construction, so a Record can never hold a subset or superset of it.
type Record struct {
	values [constants.FieldCount]string
}

// NewRecord returns an all-empty record.
func NewRecord() Record { return Record{} }

// Get returns the value stored for f, or "" if f is not a schema field.
func (r Record) Get(f constants.FieldName) string {
	i, ok := constants.FieldIndex(f)
	if !ok {
		return ""
	}
	return r.values[i]
}

// Set stores v for f. It reports false if f is not a schema field.
func (r *Record) Set(f constants.FieldName, v string) bool {
	i, ok := constants.FieldIndex(f)
	if !ok {
		return false
	}
	r.values[i] = v
	return true
}

// Values returns the field values in schema order.
func (r Record) Values() []string {
	out := make([]string, constants.FieldCount)
	copy(out, r.values[:])
	return out
}

// IsEmpty reports whether every field is blank.
func (r Record) IsEmpty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

// Map returns a copy keyed by field name.
func (r Record) Map() map[string]string {
	m := make(map[string]string, constants.FieldCount)
	for i, v := range r.values {
		m[string(constants.FieldAt(i))] = v
	}
	return m
}

// RecordFromMap builds a record from a map whose keys must be exactly the
// field schema.
func RecordFromMap(m map[string]string) (Record, error) {
	var rec Record
	var missing, unknown []string
	for k := range m {
		if !constants.IsField(k) {
			unknown = append(unknown, k)
		}
	}
	for i := 0; i < constants.FieldCount; i++ {
		f := constants.FieldAt(i)
		v, ok := m[string(f)]
		if !ok {
			missing = append(missing, string(f))
			continue
		}
		rec.values[i] = v
	}
	if len(missing) > 0 || len(unknown) > 0 {
		sort.Strings(unknown)
		return Record{}, &RecordKeyError{Missing: missing, Unknown: unknown}
	}
	return rec, nil
}

// RecordKeyError reports a key set that does not match the field schema.
type RecordKeyError struct {
	Missing []string
	Unknown []string
}

func (e *RecordKeyError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing keys: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown keys: "+strings.Join(e.Unknown, ", "))
	}
	return "record does not match field schema: " + strings.Join(parts, "; ")
}

// MarshalJSON emits the fields as an object in schema order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range r.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(constants.FieldAt(i)))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts only an object of string values keyed by exactly the
// field schema.
func (r *Record) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	rec, err := RecordFromMap(m)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
