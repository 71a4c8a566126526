package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/actorflow/actorflow/pkg/actors"
	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/registry"
)

const yamlDoc = `
name: people
actors:
  - type: csv-input
    name: reader
    properties:
      input-file: people.csv
      delimiter: ";"
    consumers: [writer]
  - type: output-file
    name: writer
    properties:
      - name: output-file
        value: out.txt
      - name: append
        value: true
    providers: [reader]
  - type: print
    name: printer
links:
  - from: reader
    to: printer
`

const jsonDoc = `{
  "name": "people",
  "actors": [
    {
      "type": "csv-input",
      "name": "reader",
      "properties": {"input-file": "people.csv", "delimiter": ";"},
      "consumers": ["writer"]
    },
    {
      "type": "output-file",
      "name": "writer",
      "properties": [
        {"name": "output-file", "value": "out.txt"},
        {"name": "append", "value": true}
      ],
      "providers": ["reader"]
    },
    {"type": "print", "name": "printer"}
  ],
  "links": [{"from": "reader", "to": "printer"}]
}`

const cueDoc = `
name: "people"

let reader = "reader"

actors: [
	{
		type: "csv-input"
		name: reader
		properties: {
			"input-file": "people.csv"
			delimiter:    ";"
		}
		consumers: ["writer"]
	},
	{
		type: "output-file"
		name: "writer"
		properties: [
			{name: "output-file", value: "out.txt"},
			{name: "append", value: true},
		]
		providers: [reader]
	},
	{type: "print", name: "printer"},
]

links: [{from: reader, to: "printer"}]
`

const hclDoc = `
name = "people"

actor "csv-input" "reader" {
  properties {
    input-file = "people.csv"
    delimiter  = ";"
  }
  consumers = ["writer"]
}

actor "output-file" "writer" {
  property "output-file" {
    value = "out.txt"
  }
  property "append" {
    value = true
  }
  providers = ["reader"]
}

actor "print" "printer" {}

link {
  from = "reader"
  to   = "printer"
}
`

const xmlDoc = `<?xml version="1.0"?>
<workflow name="people">
  <actor class="csv-input" name="reader">
    <property name="input-file">people.csv</property>
    <property name="delimiter">;</property>
    <consumer name="writer"/>
  </actor>
  <actor type="output-file" name="writer">
    <property name="output-file">out.txt</property>
    <property name="append">true</property>
    <provider name="reader"/>
  </actor>
  <actor class="print" name="printer"/>
  <link from="reader" to="printer"/>
</workflow>
`

func peopleDocument() *Document {
	return &Document{
		Name: "people",
		Actors: []ActorDocument{
			{
				Type: "csv-input",
				Name: "reader",
				Properties: PropertyList{
					{Name: "input-file", Value: "people.csv"},
					{Name: "delimiter", Value: ";"},
				},
				Consumers: []string{"writer"},
			},
			{
				Type: "output-file",
				Name: "writer",
				Properties: PropertyList{
					{Name: "output-file", Value: "out.txt"},
					{Name: "append", Value: "true"},
				},
				Providers: []string{"reader"},
			},
			{Type: "print", Name: "printer"},
		},
		Links: []LinkDocument{{From: "reader", To: "printer"}},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFile_EquivalentAcrossFormats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"people.yaml", yamlDoc},
		{"people.yml", yamlDoc},
		{"people.json", jsonDoc},
		{"people.cue", cueDoc},
		{"people.hcl", hclDoc},
		{"people.xml", xmlDoc},
	}

	want := peopleDocument()
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			doc, err := LoadFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if diff := cmp.Diff(want, doc, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_NameDefaultsToFileName(t *testing.T) {
	doc, err := LoadFile(writeFile(t, "nightly-import.yaml", "actors:\n  - type: relay\n    name: r\n"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if doc.Name != "nightly-import" {
		t.Errorf("Expected name nightly-import, got %s", doc.Name)
	}
}

func TestLoadFile_RepeatedPropertiesKeepOrder(t *testing.T) {
	doc, err := LoadFile(writeFile(t, "tags.yaml", `
actors:
  - type: relay
    name: r
    properties:
      - {name: tag, value: b}
      - {name: other, value: x}
      - {name: tag, value: a}
`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := PropertyList{{Name: "tag", Value: "b"}, {Name: "other", Value: "x"}, {Name: "tag", Value: "a"}}
	if diff := cmp.Diff(want, doc.Actors[0].Properties); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"unsupported extension", "wf.toml", "", engine.ErrCodeParse},
		{"empty yaml", "wf.yaml", "", engine.ErrCodeParse},
		{"unknown yaml field", "wf.yaml", "actors: []\nsinks: []\n", engine.ErrCodeParse},
		{"nested yaml value", "wf.yaml", "actors:\n  - type: relay\n    name: r\n    properties:\n      a: [1, 2]\n", engine.ErrCodeParse},
		{"missing actor name", "wf.yaml", "actors:\n  - type: relay\n", engine.ErrCodeValidation},
		{"empty consumer reference", "wf.yaml", "actors:\n  - type: relay\n    name: r\n    consumers: ['']\n", engine.ErrCodeValidation},
		{"cue schema violation", "wf.cue", `actors: [{name: "r"}]`, engine.ErrCodeParse},
		{"cue unknown field", "wf.json", `{"actors": [], "sinks": []}`, engine.ErrCodeParse},
		{"malformed json", "wf.json", `{"actors": [`, engine.ErrCodeParse},
		{"hcl missing label", "wf.hcl", `actor "relay" {}`, engine.ErrCodeParse},
		{"malformed xml", "wf.xml", `<workflow><actor`, engine.ErrCodeParse},
		{"xml missing type", "wf.xml", `<workflow><actor name="r"/></workflow>`, engine.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			if !engine.IsConfiguration(err) {
				t.Fatalf("Expected configuration error, got: %v", err)
			}
			if got := engine.ErrorCode(err); got != tt.wantCode {
				t.Errorf("Expected code %s, got %s (%v)", tt.wantCode, got, err)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !engine.IsConfiguration(err) {
		t.Fatalf("Expected configuration error, got: %v", err)
	}
}

func TestToDefinition(t *testing.T) {
	def := peopleDocument().ToDefinition("people.yaml")

	if def.Name != "people" || def.Source != "people.yaml" {
		t.Errorf("Unexpected name/source: %s %s", def.Name, def.Source)
	}
	if len(def.Actors) != 3 {
		t.Fatalf("Expected 3 actors, got %d", len(def.Actors))
	}
	want := []engine.PropertyDefinition{{Name: "input-file", Value: "people.csv"}, {Name: "delimiter", Value: ";"}}
	if diff := cmp.Diff(want, def.Actors[0].Properties); diff != "" {
		t.Errorf("Properties mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]engine.LinkDefinition{{From: "reader", To: "printer"}}, def.Links); diff != "" {
		t.Errorf("Links mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWorkflow(t *testing.T) {
	reg := registry.New()
	for _, typ := range []string{"csv-input", "output-file", "print"} {
		reg.MustRegister(typ, "", func(*engine.Workflow) (engine.Behavior, error) { return engine.Relay{}, nil })
	}

	path := writeFile(t, "people.yaml", yamlDoc)
	wf, err := LoadWorkflow(path, reg)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if wf.Name() != "people" || wf.Source() != path {
		t.Errorf("Unexpected name/source: %s %s", wf.Name(), wf.Source())
	}

	sinks := make([]string, 0)
	for _, a := range wf.Sinks() {
		sinks = append(sinks, a.Name())
	}
	if diff := cmp.Diff([]string{"writer", "printer"}, sinks); diff != "" {
		t.Errorf("Sinks mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWorkflow_UnknownType(t *testing.T) {
	_, err := LoadWorkflow(writeFile(t, "people.yaml", yamlDoc), registry.New())
	if engine.ErrorCode(err) != engine.ErrCodeUnknownType {
		t.Fatalf("Expected unknown type error, got: %v", err)
	}
}

const legacyXMLDoc = `<?xml version="1.0" encoding="UTF-8"?>
<workflow>
  <actor class="com.brightcove.opensource.workflowengine.actors.InputAdapter" name="input">
    <consumer name="relay"/>
  </actor>
  <actor class="com.brightcove.opensource.workflowengine.Actor" name="relay">
    <provider name="input"/>
    <consumer name="printer"/>
  </actor>
  <actor class="com.brightcove.opensource.workflowengine.actors.PrintAdapter" name="printer">
    <provider name="relay"/>
    <consumer name="output"/>
  </actor>
  <actor class="com.brightcove.opensource.workflowengine.actors.OutputAdapter" name="output">
    <property name="output-file">%s</property>
    <property name="character-set">UTF-8</property>
    <provider name="printer"/>
  </actor>
</workflow>
`

func TestLoadWorkflow_LegacyClassNames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.txt")
	path := writeFile(t, "legacy.xml", fmt.Sprintf(legacyXMLDoc, out))

	wf, err := LoadWorkflow(path, actors.NewRegistry())
	if err != nil {
		t.Fatalf("Expected legacy document to build, got: %v", err)
	}
	if err := wf.Run(context.Background()); err != nil {
		t.Fatalf("Expected run to succeed, got: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	want := actors.RenderRecord(record.New(record.NewProperty("ID", "FOO")))
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Fatalf("Output mismatch (-want +got):\n%s", diff)
	}
}
