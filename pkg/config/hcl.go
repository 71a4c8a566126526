package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// hclDocument is the top-level structure of an HCL workflow file:
//
//	name = "import"
//
//	actor "csv-input" "reader" {
//	  properties {
//	    input-file = "people.csv"
//	  }
//	  consumers = ["writer"]
//	}
//
//	link {
//	  from = "reader"
//	  to   = "writer"
//	}
type hclDocument struct {
	Name        string     `hcl:"name,optional"`
	Description string     `hcl:"description,optional"`
	Actors      []hclActor `hcl:"actor,block"`
	Links       []hclLink  `hcl:"link,block"`
}

type hclActor struct {
	Type      string         `hcl:"type,label"`
	Name      string         `hcl:"name,label"`
	Providers []string       `hcl:"providers,optional"`
	Consumers []string       `hcl:"consumers,optional"`
	Blocks    []hclPropBlock `hcl:"properties,block"`
	Property  []hclProperty  `hcl:"property,block"`
}

// hclPropBlock holds properties as attributes. Attribute names must be
// unique within a block; repeated names use property blocks instead.
type hclPropBlock struct {
	Body hcl.Body `hcl:",remain"`
}

type hclProperty struct {
	Name  string    `hcl:"name,label"`
	Value cty.Value `hcl:"value"`
}

type hclLink struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

func parseHCL(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var parsed hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, diags
	}

	doc := &Document{
		Name:        parsed.Name,
		Description: parsed.Description,
		Actors:      make([]ActorDocument, 0, len(parsed.Actors)),
	}

	for _, a := range parsed.Actors {
		props, err := hclProperties(a)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", a.Name, err)
		}
		doc.Actors = append(doc.Actors, ActorDocument{
			Type:       a.Type,
			Name:       a.Name,
			Properties: props,
			Providers:  a.Providers,
			Consumers:  a.Consumers,
		})
	}

	for _, l := range parsed.Links {
		doc.Links = append(doc.Links, LinkDocument{From: l.From, To: l.To})
	}

	return doc, nil
}

// hclProperties returns attribute-style properties in source order,
// followed by property blocks in source order.
func hclProperties(a hclActor) (PropertyList, error) {
	out := make(PropertyList, 0, len(a.Property))

	for _, block := range a.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}

		sorted := make([]*hcl.Attribute, 0, len(attrs))
		for _, attr := range attrs {
			sorted = append(sorted, attr)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Range.Start.Byte < sorted[j].Range.Start.Byte })

		for _, attr := range sorted {
			v, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			s, err := ctyString(v)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", attr.Name, err)
			}
			out = append(out, PropertyDocument{Name: attr.Name, Value: s})
		}
	}

	for _, p := range a.Property {
		s, err := ctyString(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		out = append(out, PropertyDocument{Name: p.Name, Value: s})
	}

	return out, nil
}

func ctyString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is not known")
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}
