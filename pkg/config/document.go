package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/actorflow/actorflow/pkg/engine"
)

// Document is a workflow document as written by a user, independent of
// its encoding.
type Document struct {
	// Name identifies the workflow in logs, metrics and run history.
	// Defaults to the file name without extension.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description is free text.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Actors are the node declarations, in registration order.
	Actors []ActorDocument `yaml:"actors" json:"actors" validate:"dive"`

	// Links declare provider and consumer edges at once.
	Links []LinkDocument `yaml:"links,omitempty" json:"links,omitempty" validate:"dive"`
}

// ActorDocument declares one node.
type ActorDocument struct {
	// Type is the registry type identifier (e.g. "csv-input").
	Type string `yaml:"type" json:"type" validate:"required"`

	// Name is the instance name, unique within the document.
	Name string `yaml:"name" json:"name" validate:"required"`

	// Properties configure the node. Order is preserved.
	Properties PropertyList `yaml:"properties,omitempty" json:"properties,omitempty" validate:"dive"`

	// Providers are the instance names this node pulls from.
	Providers []string `yaml:"providers,omitempty" json:"providers,omitempty" validate:"dive,required"`

	// Consumers are the instance names this node pushes to.
	Consumers []string `yaml:"consumers,omitempty" json:"consumers,omitempty" validate:"dive,required"`
}

// PropertyDocument is a name/value configuration entry.
type PropertyDocument struct {
	Name  string `yaml:"name" json:"name" validate:"required"`
	Value string `yaml:"value" json:"value"`
}

// LinkDocument makes To a consumer of From and From a provider of To.
type LinkDocument struct {
	From string `yaml:"from" json:"from" validate:"required"`
	To   string `yaml:"to" json:"to" validate:"required"`
}

// PropertyList is an ordered list of properties. Documents may write it
// as a list of {name, value} entries, which allows repeated names, or as
// a mapping, which is shorter. Scalar values of any type are kept as
// their textual form.
type PropertyList []PropertyDocument

// UnmarshalYAML accepts a sequence of {name, value} or a mapping.
func (pl *PropertyList) UnmarshalYAML(node *yaml.Node) error {
	out := make(PropertyList, 0, len(node.Content))

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			value, err := yamlScalar(node.Content[i+1])
			if err != nil {
				return fmt.Errorf("property %q: %w", node.Content[i].Value, err)
			}
			out = append(out, PropertyDocument{Name: node.Content[i].Value, Value: value})
		}

	case yaml.SequenceNode:
		for _, item := range node.Content {
			var entry struct {
				Name  string    `yaml:"name"`
				Value yaml.Node `yaml:"value"`
			}
			if err := item.Decode(&entry); err != nil {
				return err
			}
			value, err := yamlScalar(&entry.Value)
			if err != nil {
				return fmt.Errorf("property %q: %w", entry.Name, err)
			}
			out = append(out, PropertyDocument{Name: entry.Name, Value: value})
		}

	default:
		return fmt.Errorf("line %d: properties must be a list or a mapping", node.Line)
	}

	*pl = out
	return nil
}

func yamlScalar(node *yaml.Node) (string, error) {
	switch {
	case node.Kind == 0, node.Tag == "!!null":
		return "", nil
	case node.Kind == yaml.ScalarNode:
		return node.Value, nil
	default:
		return "", fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
}

// UnmarshalJSON accepts an array of {name, value} or an object. Object
// key order is preserved.
func (pl *PropertyList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*pl = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if data[0] == '[' {
		var entries []struct {
			Name  string `json:"name"`
			Value any    `json:"value"`
		}
		if err := dec.Decode(&entries); err != nil {
			return err
		}
		out := make(PropertyList, 0, len(entries))
		for _, e := range entries {
			value, err := jsonScalar(e.Value)
			if err != nil {
				return fmt.Errorf("property %q: %w", e.Name, err)
			}
			out = append(out, PropertyDocument{Name: e.Name, Value: value})
		}
		*pl = out
		return nil
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	out := make(PropertyList, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("properties must be an object or an array")
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		value, err := jsonScalar(raw)
		if err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
		out = append(out, PropertyDocument{Name: name, Value: value})
	}
	*pl = out
	return nil
}

func jsonScalar(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("value must be a scalar, got %T", v)
	}
}

var validate = validator.New()

// Validate checks the document structure. Name uniqueness and reference
// resolution are checked when the workflow is built.
func (d *Document) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return engine.NewConfigurationError("invalid workflow document", err).WithCode(engine.ErrCodeValidation)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", strings.TrimPrefix(fe.Namespace(), "Document."), fe.Tag()))
	}
	return engine.NewConfigurationError("invalid workflow document: "+strings.Join(msgs, "; "), err).
		WithCode(engine.ErrCodeValidation)
}

// ToDefinition converts the document into the engine's build input.
func (d *Document) ToDefinition(source string) *engine.Definition {
	def := &engine.Definition{
		Name:   d.Name,
		Source: source,
		Actors: make([]engine.ActorDefinition, 0, len(d.Actors)),
	}

	for _, a := range d.Actors {
		ad := engine.ActorDefinition{
			Type:      a.Type,
			Name:      a.Name,
			Providers: append([]string(nil), a.Providers...),
			Consumers: append([]string(nil), a.Consumers...),
		}
		for _, p := range a.Properties {
			ad.Properties = append(ad.Properties, engine.PropertyDefinition{Name: p.Name, Value: p.Value})
		}
		def.Actors = append(def.Actors, ad)
	}

	for _, l := range d.Links {
		def.Links = append(def.Links, engine.LinkDefinition{From: l.From, To: l.To})
	}

	return def
}
