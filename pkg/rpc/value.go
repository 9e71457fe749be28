package rpc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ValueKind is the shape of a normalized reply value.
type ValueKind int

const (
	StringValue ValueKind = iota
	BoolValue
	RecordValue
)

// Value is a reply subtree turned into plain data: either a string
// (a leaf with text), true (a leaf with no text, i.e. a flag), or a
// record of child tag to value.
type Value struct {
	kind   ValueKind
	str    string
	record map[Tag]Value
}

// Record is a normalized element with children.
type Record map[Tag]Value

func String(s string) Value {
	return Value{kind: StringValue, str: s}
}

func True() Value {
	return Value{kind: BoolValue}
}

func RecordOf(r Record) Value {
	if r == nil {
		r = Record{}
	}
	return Value{kind: RecordValue, record: r}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

// Str returns the string, if the value is one.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == StringValue
}

// Bool reports whether the value is a flag (which can only be true).
func (v Value) Bool() bool {
	return v.kind == BoolValue
}

// Record returns the record, if the value is one.
func (v Value) Record() (Record, bool) {
	return Record(v.record), v.kind == RecordValue
}

// Normalize converts an element into a Value. Elements with children
// become records keyed by child tag; a repeated child tag keeps only
// its last occurrence. Leaves become their text, untrimmed, or true
// when there is no text at all.
func Normalize(e *Element) Value {
	if len(e.Children) > 0 {
		r := make(Record, len(e.Children))
		for _, c := range e.Children {
			r[c.Tag] = Normalize(c)
		}
		return RecordOf(r)
	}
	if e.Text != "" {
		return String(e.Text)
	}
	return True()
}

// NormalizeList normalizes each child of e, in order. This is how
// list replies (<results>, <msgs>, ...) become a slice of records.
func NormalizeList(e *Element) []Value {
	values := make([]Value, 0, len(e.Children))
	for _, c := range e.Children {
		values = append(values, Normalize(c))
	}
	return values
}

// Get looks up a key in a record.
func (r Record) Get(tag Tag) (Value, bool) {
	v, ok := r[tag]
	return v, ok
}

// Text returns the trimmed text under tag, or "" when the key is
// missing or is not a string.
func (r Record) Text(tag Tag) string {
	if v, ok := r[tag]; ok {
		if s, ok := v.Str(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Has reports whether tag is present, whatever its shape.
func (r Record) Has(tag Tag) bool {
	_, ok := r[tag]
	return ok
}

func (v Value) Interface() interface{} {
	switch v.kind {
	case StringValue:
		return v.str
	case BoolValue:
		return true
	}
	m := make(map[string]interface{}, len(v.record))
	for k, child := range v.record {
		m[string(k)] = child.Interface()
	}
	return m
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

func (v Value) String() string {
	switch v.kind {
	case StringValue:
		return fmt.Sprintf("%q", v.str)
	case BoolValue:
		return "true"
	}
	keys := make([]string, 0, len(v.record))
	for k := range v.record {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+v.record[Tag(k)].String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}
