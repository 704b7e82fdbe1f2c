// Package snapshot provides the persisted index snapshot document: the JSON
// form of one scan's elements and edge facts, with enough metadata to serve
// as a drift baseline later.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"coderef/internal/element"
	"coderef/internal/errors"
	"coderef/internal/graph"
)

// FormatVersion is the current version of the snapshot document format
const FormatVersion = 1

// Metadata summarizes a snapshot's contents
type Metadata struct {
	TotalFiles    int      `json:"totalFiles"`
	TotalElements int      `json:"totalElements"`
	Languages     []string `json:"languages"`
}

// Snapshot is one scan's complete persisted state
type Snapshot struct {
	Version   int                     `json:"version"`
	ID        string                  `json:"id"`
	Timestamp time.Time               `json:"timestamp"`
	Elements  []element.ElementRecord `json:"elements"`
	Edges     []graph.EdgeFact        `json:"edges,omitempty"`
	Metadata  Metadata                `json:"metadata"`
}

// New builds a snapshot document from scan output, assigning a fresh ID and
// computing the summary metadata.
func New(elements []element.ElementRecord, edges []graph.EdgeFact) *Snapshot {
	idx := element.Build(elements)
	return &Snapshot{
		Version:   FormatVersion,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Elements:  elements,
		Edges:     edges,
		Metadata: Metadata{
			TotalFiles:    len(idx.Paths()),
			TotalElements: idx.Len(),
			Languages:     idx.Languages(),
		},
	}
}

// Index rebuilds the element index for this snapshot
func (s *Snapshot) Index() *element.Index {
	return element.Build(s.Elements)
}

// BuildGraph rebuilds the dependency graph for this snapshot
func (s *Snapshot) BuildGraph(idx *element.Index) *graph.Graph {
	return graph.Build(idx, s.Edges)
}

// Encode writes the snapshot document in the requested format (json or yaml)
func (s *Snapshot) Encode(w io.Writer, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		// Round-trip through JSON so the ordered-metadata marshaler is honored
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown snapshot format %q", format)
	}
}

// Marshal renders the snapshot as compact JSON
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a JSON snapshot document, rejecting unknown versions
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.New(errors.ScanInputInvalid, "parsing snapshot document", err)
	}
	if s.Version != FormatVersion {
		return nil, errors.Newf(errors.ScanInputInvalid, "unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// Save writes the snapshot as an indented JSON file
func (s *Snapshot) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads a JSON snapshot file
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.SnapshotNotFound, "snapshot file %s not found", path)
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return Unmarshal(data)
}
