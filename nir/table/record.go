package table

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Field is one named value in a [Record].
type Field struct {
	Name  string
	Value float64
}

// Record is one row of a table: the columns that have a value at that
// index, in table order.
type Record []Field

// Get returns the value of the named field.
func (r Record) Get(name string) (float64, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Map converts the record to a map keyed by column name.
func (r Record) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object that keeps column order.
// Non-finite values are encoded as null.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if isFinite(f.Value) {
			buf.WriteString(strconv.FormatFloat(f.Value, 'g', -1, 64))
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into a record. Key order is kept.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out Record
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var v *float64
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if v != nil {
			out = append(out, Field{Name: name, Value: *v})
		}
	}
	*r = out
	return nil
}

// Records converts the table to one record per index position across the
// longest column. A column contributes to a record only if it has a value
// at that index.
func (t *Table) Records() []Record {
	n := t.Len()
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		rec := make(Record, 0, len(t.names))
		for _, name := range t.names {
			col := t.cols[name]
			if i < len(col) {
				rec = append(rec, Field{Name: name, Value: col[i]})
			}
		}
		out[i] = rec
	}
	return out
}

func isFinite(v float64) bool {
	return v-v == 0
}
