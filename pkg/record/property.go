package record

import "fmt"

// Property is a named value attached to a Record or to an actor's
// configuration. Names are not unique within an owner.
type Property struct {
	name  string
	value any
}

// NewProperty creates a property.
func NewProperty(name string, value any) *Property {
	return &Property{name: name, value: value}
}

// Name returns the property name.
func (p *Property) Name() string {
	return p.name
}

// SetName renames the property.
func (p *Property) SetName(name string) {
	p.name = name
}

// Value returns the property value.
func (p *Property) Value() any {
	return p.value
}

// SetValue replaces the property value.
func (p *Property) SetValue(value any) {
	p.value = value
}

// StringValue returns the value formatted as text. A nil value yields "".
func (p *Property) StringValue() string {
	switch v := p.value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// String renders the property as [Property name='n' value='v']. A nil
// value renders as null.
func (p *Property) String() string {
	value := p.StringValue()
	if p.value == nil {
		value = "null"
	}
	return fmt.Sprintf("[Property name='%s' value='%s']", p.name, value)
}
