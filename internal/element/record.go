// Package element defines the normalized element record produced by external
// scanners and the immutable multi-key index built over one scan snapshot.
package element

import (
	"strings"

	"coderef/internal/tag"
)

// ElementRecord is one scanned code element in normalized form. The tuple
// (path, name, line) is unique within one scan snapshot; duplicates are
// reported as warnings by Build, never silently dropped.
type ElementRecord struct {
	Type     tag.Type     `json:"type"`
	Path     string       `json:"path"` // Forward slashes, no file extension
	Name     string       `json:"name,omitempty"`
	Line     int          `json:"line,omitempty"`
	Metadata tag.Metadata `json:"metadata,omitempty"`
	Language string       `json:"language,omitempty"`
}

// Reference converts the record to its tag form
func (e ElementRecord) Reference() tag.Reference {
	return tag.Reference{
		Type:     e.Type,
		Path:     e.Path,
		Element:  e.Name,
		Line:     e.Line,
		Metadata: e.Metadata,
	}
}

// IdentityKey returns the canonical identity key type:path#element:line
func (e ElementRecord) IdentityKey() string {
	return e.Reference().IdentityKey()
}

// Tag returns the canonical tag text for the record
func (e ElementRecord) Tag() string {
	return tag.Generate(e.Reference())
}

// NormalizePath converts a scanner-supplied file path to the canonical form:
// forward slashes, no leading ./, no file extension.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, "/")

	// Strip the extension from the final segment only
	slash := strings.LastIndexByte(p, '/')
	if dot := strings.LastIndexByte(p, '.'); dot > slash+1 {
		p = p[:dot]
	}
	return p
}
