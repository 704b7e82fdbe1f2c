// Package ingest decodes external scanner output into element records and
// edge facts. Three input shapes are supported: the native JSON scan format,
// its YAML equivalent, and binary SCIP indexes.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"coderef/internal/element"
	"coderef/internal/errors"
	"coderef/internal/graph"
	"coderef/internal/tag"
)

// ScanResult is the decoded output of one scanner run
type ScanResult struct {
	Tool     string                  `json:"tool,omitempty"`
	Elements []element.ElementRecord `json:"elements"`
	Edges    []graph.EdgeFact        `json:"edges,omitempty"`
}

// scanDocument is the wire shape of a scan result file
type scanDocument struct {
	Tool     string        `json:"tool" yaml:"tool"`
	Elements []scanElement `json:"elements" yaml:"elements"`
	Edges    []scanEdge    `json:"edges" yaml:"edges"`
}

type scanElement struct {
	Type     string       `json:"type" yaml:"type"`
	Path     string       `json:"path" yaml:"path"`
	Name     string       `json:"name" yaml:"name"`
	Line     int          `json:"line" yaml:"line"`
	Metadata tag.Metadata `json:"metadata" yaml:"-"`
	Language string       `json:"language" yaml:"language"`

	// YAML metadata arrives as a mapping node so key order survives decoding
	YAMLMetadata yaml.Node `json:"-" yaml:"metadata"`
}

type scanEdge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Kind   string `json:"kind" yaml:"kind"`
}

// ReadScanFile decodes a scan result file, dispatching on extension:
// .json, .yaml, .yml, and .scip are recognized.
func ReadScanFile(path string) (*ScanResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.New(errors.ScanInputInvalid, fmt.Sprintf("opening scan file %s", path), err)
		}
		defer f.Close()
		return ReadScanJSON(f)
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.New(errors.ScanInputInvalid, fmt.Sprintf("opening scan file %s", path), err)
		}
		defer f.Close()
		return ReadScanYAML(f)
	case ".scip":
		return ReadSCIPFile(path)
	default:
		return nil, errors.Newf(errors.ScanInputInvalid, "unrecognized scan file extension %q", filepath.Ext(path))
	}
}

// ReadScanJSON decodes the native JSON scan format
func ReadScanJSON(r io.Reader) (*ScanResult, error) {
	var doc scanDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.New(errors.ScanInputInvalid, "decoding JSON scan result", err)
	}
	return convertDocument(&doc)
}

// ReadScanYAML decodes the YAML scan format
func ReadScanYAML(r io.Reader) (*ScanResult, error) {
	var doc scanDocument
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.New(errors.ScanInputInvalid, "decoding YAML scan result", err)
	}
	for i := range doc.Elements {
		meta, err := metadataFromYAML(&doc.Elements[i].YAMLMetadata)
		if err != nil {
			return nil, errors.New(errors.ScanInputInvalid,
				fmt.Sprintf("element %d has invalid metadata", i), err)
		}
		doc.Elements[i].Metadata = meta
	}
	return convertDocument(&doc)
}

func convertDocument(doc *scanDocument) (*ScanResult, error) {
	result := &ScanResult{
		Tool:     doc.Tool,
		Elements: make([]element.ElementRecord, 0, len(doc.Elements)),
		Edges:    make([]graph.EdgeFact, 0, len(doc.Edges)),
	}

	for i, el := range doc.Elements {
		typ := tag.Type(el.Type)
		if !typ.IsKnown() {
			return nil, errors.Newf(errors.ScanInputInvalid,
				"element %d has unknown type %q", i, el.Type)
		}
		if el.Path == "" {
			return nil, errors.Newf(errors.ScanInputInvalid, "element %d has empty path", i)
		}
		if el.Line < 0 {
			return nil, errors.Newf(errors.ScanInputInvalid,
				"element %d has negative line %d", i, el.Line)
		}
		result.Elements = append(result.Elements, element.ElementRecord{
			Type:     typ,
			Path:     element.NormalizePath(el.Path),
			Name:     el.Name,
			Line:     el.Line,
			Metadata: el.Metadata,
			Language: el.Language,
		})
	}

	for i, e := range doc.Edges {
		kind := graph.EdgeKind(e.Kind)
		if !kind.IsKnown() {
			return nil, errors.Newf(errors.ScanInputInvalid,
				"edge %d has unknown kind %q", i, e.Kind)
		}
		if e.Source == "" || e.Target == "" {
			return nil, errors.Newf(errors.ScanInputInvalid, "edge %d has empty endpoint", i)
		}
		result.Edges = append(result.Edges, graph.EdgeFact{
			Source: e.Source,
			Target: e.Target,
			Kind:   kind,
		})
	}

	return result, nil
}

// metadataFromYAML converts a YAML mapping node to ordered metadata. Node
// content preserves document order, which plain map decoding would lose.
func metadataFromYAML(node *yaml.Node) (tag.Metadata, error) {
	if node.Kind == 0 || node.Tag == "!!null" {
		return tag.Metadata{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return tag.Metadata{}, fmt.Errorf("metadata must be a mapping")
	}

	var meta tag.Metadata
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			return tag.Metadata{}, fmt.Errorf("metadata key %q must map to a scalar", key.Value)
		}
		var mv tag.MetaValue
		switch val.Tag {
		case "!!bool":
			var b bool
			if err := val.Decode(&b); err != nil {
				return tag.Metadata{}, err
			}
			mv = tag.BoolValue(b)
		case "!!int", "!!float":
			var f float64
			if err := val.Decode(&f); err != nil {
				return tag.Metadata{}, err
			}
			mv = tag.NumberValue(f)
		default:
			mv = tag.StringValue(val.Value)
		}
		meta = meta.Set(key.Value, mv)
	}
	return meta, nil
}
