package element

import (
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"coderef/internal/errors"
	"coderef/internal/tag"
)

// Warning is a non-fatal condition attached to an index build result
type Warning struct {
	Code        errors.ErrorCode `json:"code"`
	Message     string           `json:"message"`
	IdentityKey string           `json:"identityKey,omitempty"`
}

// metaKey addresses the by-metadata map by key and canonical value text
type metaKey struct {
	key   string
	value string
}

// Index is an immutable snapshot over one scan's elements with four lookup
// maps (type, path, element name, metadata key/value). A new scan produces a
// new Index; an Index is never mutated after Build, so concurrent readers
// need no locking.
type Index struct {
	elements []ElementRecord
	byType   map[tag.Type][]int
	byPath   map[string][]int
	byName   map[string][]int
	byMeta   map[metaKey][]int
	identity map[string][]int
	warnings []Warning
}

// Build constructs an Index in a single pass over the input. Elements that
// collide on identity key are all retained under that key and reported via a
// duplicate_identity warning; collisions are never fatal.
func Build(elements []ElementRecord) *Index {
	idx := &Index{
		elements: make([]ElementRecord, len(elements)),
		byType:   make(map[tag.Type][]int),
		byPath:   make(map[string][]int),
		byName:   make(map[string][]int),
		byMeta:   make(map[metaKey][]int),
		identity: make(map[string][]int),
	}
	copy(idx.elements, elements)

	for i, e := range idx.elements {
		key := e.IdentityKey()
		if prior := idx.identity[key]; len(prior) == 1 {
			idx.warnings = append(idx.warnings, Warning{
				Code:        errors.DuplicateIdentity,
				Message:     "duplicate identity key in scan",
				IdentityKey: key,
			})
		}
		idx.identity[key] = append(idx.identity[key], i)

		idx.byType[e.Type] = append(idx.byType[e.Type], i)
		idx.byPath[e.Path] = append(idx.byPath[e.Path], i)
		if e.Name != "" {
			idx.byName[e.Name] = append(idx.byName[e.Name], i)
		}
		for _, f := range e.Metadata {
			mk := metaKey{key: f.Key, value: f.Value.Format()}
			idx.byMeta[mk] = append(idx.byMeta[mk], i)
		}
	}

	return idx
}

// Warnings returns the non-fatal conditions collected during Build
func (idx *Index) Warnings() []Warning {
	out := make([]Warning, len(idx.warnings))
	copy(out, idx.warnings)
	return out
}

// Len returns the number of indexed elements
func (idx *Index) Len() int {
	return len(idx.elements)
}

// Elements returns all indexed elements in stable input order
func (idx *Index) Elements() []ElementRecord {
	out := make([]ElementRecord, len(idx.elements))
	copy(out, idx.elements)
	return out
}

// ByType returns elements of one designator in input order
func (idx *Index) ByType(t tag.Type) []ElementRecord {
	return idx.collect(idx.byType[t])
}

// ByPath returns elements at one path in input order
func (idx *Index) ByPath(path string) []ElementRecord {
	return idx.collect(idx.byPath[path])
}

// ByName returns elements with one element name in input order
func (idx *Index) ByName(name string) []ElementRecord {
	return idx.collect(idx.byName[name])
}

// ByMetadata returns elements carrying the given metadata key/value pair
func (idx *Index) ByMetadata(key string, value tag.MetaValue) []ElementRecord {
	return idx.collect(idx.byMeta[metaKey{key: key, value: value.Format()}])
}

// Lookup returns every element sharing an identity key. More than one result
// means the scan carried a duplicate-identity collision.
func (idx *Index) Lookup(identityKey string) []ElementRecord {
	return idx.collect(idx.identity[identityKey])
}

// Has reports whether an identity key is present
func (idx *Index) Has(identityKey string) bool {
	return len(idx.identity[identityKey]) > 0
}

// TypePathCandidates returns elements sharing (type, path), ordered by
// element name then line. Drift detection relies on this ordering for
// deterministic tie-breaks.
func (idx *Index) TypePathCandidates(t tag.Type, path string) []ElementRecord {
	var out []ElementRecord
	for _, i := range idx.byPath[path] {
		if idx.elements[i].Type == t {
			out = append(out, idx.elements[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].Line < out[b].Line
	})
	return out
}

// Paths returns all distinct paths in lexicographic order
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Languages returns all distinct non-empty languages in lexicographic order
func (idx *Index) Languages() []string {
	seen := make(map[string]bool)
	for _, e := range idx.elements {
		if e.Language != "" {
			seen[e.Language] = true
		}
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Filter selects elements for Query; all provided fields are ANDed
type Filter struct {
	Types       []tag.Type               `json:"typeDesignators,omitempty"`
	PathPattern string                   `json:"pathPattern,omitempty"` // Glob, doublestar syntax
	Metadata    map[string]tag.MetaValue `json:"metadataFilters,omitempty"`
	Limit       int                      `json:"limit,omitempty"`
}

// Query returns elements matching the filter in stable input order,
// truncated at Limit when set. Metadata filters match exactly.
func (idx *Index) Query(f Filter) ([]ElementRecord, error) {
	if f.PathPattern != "" {
		if !doublestar.ValidatePattern(f.PathPattern) {
			return nil, errors.Newf(errors.InternalError, "invalid path pattern %q", f.PathPattern)
		}
	}

	typeSet := make(map[tag.Type]bool, len(f.Types))
	for _, t := range f.Types {
		typeSet[t] = true
	}

	var out []ElementRecord
	for _, e := range idx.elements {
		if len(typeSet) > 0 && !typeSet[e.Type] {
			continue
		}
		if f.PathPattern != "" {
			ok, err := doublestar.Match(f.PathPattern, e.Path)
			if err != nil {
				return nil, errors.New(errors.InternalError, "path pattern match failed", err)
			}
			if !ok {
				continue
			}
		}
		if !metadataMatches(e.Metadata, f.Metadata) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func metadataMatches(meta tag.Metadata, filters map[string]tag.MetaValue) bool {
	for key, want := range filters {
		got, ok := meta.Get(key)
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

func (idx *Index) collect(indices []int) []ElementRecord {
	if len(indices) == 0 {
		return nil
	}
	out := make([]ElementRecord, len(indices))
	for i, j := range indices {
		out[i] = idx.elements[j]
	}
	return out
}
