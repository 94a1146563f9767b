package snapshot

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindText
	KindBase64
)

// Value is one decoded cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Bool  bool
	Text  string // text, or base64 for KindBase64
}

func Null() Value { return Value{Kind: KindNull} }
func Int(v int64) Value { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Bool(v bool) Value { return Value{Kind: KindBool, Bool: v} }
func Text(v string) Value { return Value{Kind: KindText, Text: v} }
func Base64(encoded string) Value { return Value{Kind: KindBase64, Text: encoded} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return strconv.AppendInt(nil, v.Int, 10), nil
	case KindFloat:
		return json.Marshal(v.Float)
	case KindBool:
		return strconv.AppendBool(nil, v.Bool), nil
	case KindText, KindBase64:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// Record is one source row: column labels and their decoded values, in
// source column order.
type Record struct {
	Columns []string
	Values  []Value
}

// Get returns the value stored under label.
func (r Record) Get(label string) (Value, bool) {
	for i, c := range r.Columns {
		if c == label {
			return r.Values[i], true
		}
	}
	return Value{}, false
}

// MarshalJSON writes the record as an object whose keys keep column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.Values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
