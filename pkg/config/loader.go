package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/actorflow/actorflow/pkg/engine"
)

// Format is a workflow document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
	FormatHCL  Format = "hcl"
	FormatXML  Format = "xml"
)

// Formats lists the supported encodings.
var Formats = []Format{FormatYAML, FormatJSON, FormatCUE, FormatHCL, FormatXML}

// FormatFromPath picks the encoding from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	case ".hcl":
		return FormatHCL, nil
	case ".xml":
		return FormatXML, nil
	default:
		return "", engine.NewConfigurationError(fmt.Sprintf("unsupported workflow file extension %q", filepath.Ext(path)), nil).
			WithCode(engine.ErrCodeParse).
			WithDetail("source", path)
	}
}

// LoadFile reads, decodes and validates a workflow document.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.NewConfigurationError("failed to read workflow file", err).
			WithCode(engine.ErrCodeParse).
			WithDetail("source", path)
	}

	doc, err := Parse(data, format, path)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Parse decodes and validates a document. filename is used in error
// messages only.
func Parse(data []byte, format Format, filename string) (*Document, error) {
	var (
		doc *Document
		err error
	)

	switch format {
	case FormatYAML:
		doc, err = parseYAML(data)
	case FormatJSON, FormatCUE:
		doc, err = parseCUE(data, filename)
	case FormatHCL:
		doc, err = parseHCL(data, filename)
	case FormatXML:
		doc, err = parseXML(data)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, engine.NewConfigurationError(fmt.Sprintf("failed to parse %s workflow document", format), err).
			WithCode(engine.ErrCodeParse).
			WithDetail("source", filename)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadWorkflow loads the document at path and builds it against reg.
func LoadWorkflow(path string, reg engine.ActorRegistry, opts ...engine.Option) (*engine.Workflow, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return engine.Build(doc.ToDefinition(path), reg, opts...)
}

func parseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("document is empty")
		}
		return nil, err
	}
	return &doc, nil
}
