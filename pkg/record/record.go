// Package record defines the data unit that flows along workflow edges: an
// ordered bag of named properties.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is an ordered sequence of properties. Several properties may share
// a name. A record is handed by pointer to every consumer, so a consumer
// that needs to change it should work on a Clone.
type Record struct {
	properties []*Property
}

// New creates a record holding the given properties in order.
func New(props ...*Property) *Record {
	r := &Record{properties: make([]*Property, 0, len(props))}
	for _, p := range props {
		if p != nil {
			r.properties = append(r.properties, p)
		}
	}
	return r
}

// Add appends a property.
func (r *Record) Add(p *Property) {
	if p == nil {
		return
	}
	r.properties = append(r.properties, p)
}

// AddProperty appends a new property built from name and value and returns it.
func (r *Record) AddProperty(name string, value any) *Property {
	p := NewProperty(name, value)
	r.properties = append(r.properties, p)
	return p
}

// Properties returns every property called name, in insertion order.
func (r *Record) Properties(name string) []*Property {
	matches := make([]*Property, 0)
	for _, p := range r.properties {
		if p.name == name {
			matches = append(matches, p)
		}
	}
	return matches
}

// FirstProperty returns the earliest-added property called name, or nil.
func (r *Record) FirstProperty(name string) *Property {
	for _, p := range r.properties {
		if p.name == name {
			return p
		}
	}
	return nil
}

// FirstValue returns the value of the earliest-added property called name.
func (r *Record) FirstValue(name string) (any, bool) {
	p := r.FirstProperty(name)
	if p == nil {
		return nil, false
	}
	return p.value, true
}

// Remove deletes every property called name and reports how many were removed.
func (r *Record) Remove(name string) int {
	kept := r.properties[:0]
	removed := 0
	for _, p := range r.properties {
		if p.name == name {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	clear(r.properties[len(kept):])
	r.properties = kept
	return removed
}

// RemoveProperty deletes the given property instance.
func (r *Record) RemoveProperty(target *Property) bool {
	for i, p := range r.properties {
		if p == target {
			r.properties = append(r.properties[:i], r.properties[i+1:]...)
			return true
		}
	}
	return false
}

// All returns a copy of the property list.
func (r *Record) All() []*Property {
	out := make([]*Property, len(r.properties))
	copy(out, r.properties)
	return out
}

// Len returns the number of properties.
func (r *Record) Len() int {
	return len(r.properties)
}

// Clone copies the property list. Values are shared.
func (r *Record) Clone() *Record {
	c := &Record{properties: make([]*Property, len(r.properties))}
	for i, p := range r.properties {
		c.properties[i] = NewProperty(p.name, p.value)
	}
	return c
}

// Map returns name -> value using the first property for each name.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.properties))
	for _, p := range r.properties {
		if _, ok := m[p.name]; !ok {
			m[p.name] = p.value
		}
	}
	return m
}

// String renders the record as [Record [Property ...][Property ...]].
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("[Record ")
	for _, p := range r.properties {
		sb.WriteString(p.String())
	}
	sb.WriteString("]")
	return sb.String()
}

type jsonProperty struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// MarshalJSON encodes the record as an ordered array of name/value objects.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make([]jsonProperty, len(r.properties))
	for i, p := range r.properties {
		out[i] = jsonProperty{Name: p.name, Value: p.value}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in []jsonProperty
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	r.properties = make([]*Property, len(in))
	for i, p := range in {
		r.properties[i] = NewProperty(p.Name, p.Value)
	}
	return nil
}
