// Package drift compares two index snapshots and classifies how every
// baseline reference has changed: unchanged, moved, renamed, missing, or
// ambiguous.
package drift

import (
	"io"

	"coderef/internal/element"
	"coderef/internal/logging"
)

// Status is the drift classification of one baseline reference
type Status string

const (
	// StatusUnchanged means the exact identity key is still present
	StatusUnchanged Status = "unchanged"
	// StatusMoved means the same (type, path, name) exists at a different line
	StatusMoved Status = "moved"
	// StatusRenamed means a sufficiently similar name exists at the same (type, path)
	StatusRenamed Status = "renamed"
	// StatusMissing means no candidate reaches the rename threshold
	StatusMissing Status = "missing"
	// StatusAmbiguous means two or more candidates tie within the epsilon;
	// resolution is deferred to the caller, never guessed
	StatusAmbiguous Status = "ambiguous"
)

// Result is the classification of one baseline reference. Results are
// produced fresh on every Compare call and never persisted by the engine.
type Result struct {
	Status     Status                  `json:"status"`
	Reference  string                  `json:"reference"` // Canonical tag text
	OldLine    int                     `json:"oldLine,omitempty"`
	NewLine    int                     `json:"newLine,omitempty"`
	OldName    string                  `json:"oldName,omitempty"`
	NewName    string                  `json:"newName,omitempty"`
	Confidence float64                 `json:"confidence,omitempty"`
	Candidates []element.ElementRecord `json:"candidates,omitempty"`
}

// Options tunes the rename classification. The defaults mirror long-standing
// practice but both knobs are deliberately configurable.
type Options struct {
	// RenameThreshold is the minimum similarity ratio for a rename (default 0.7)
	RenameThreshold float64
	// AmbiguityEpsilon is the ratio window within which candidates tie (default 0.01)
	AmbiguityEpsilon float64
}

// DefaultOptions returns the standard rename threshold and ambiguity epsilon
func DefaultOptions() Options {
	return Options{
		RenameThreshold:  0.7,
		AmbiguityEpsilon: 0.01,
	}
}

// Detector classifies drift between a baseline index and a current index
type Detector struct {
	opts   Options
	logger *logging.Logger
}

// NewDetector creates a detector. Zero option fields fall back to defaults;
// a nil logger discards output.
func NewDetector(opts Options, logger *logging.Logger) *Detector {
	if opts.RenameThreshold <= 0 {
		opts.RenameThreshold = DefaultOptions().RenameThreshold
	}
	if opts.AmbiguityEpsilon <= 0 {
		opts.AmbiguityEpsilon = DefaultOptions().AmbiguityEpsilon
	}
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel, Output: io.Discard})
	}
	return &Detector{opts: opts, logger: logger.WithComponent("drift")}
}

// Compare classifies every baseline reference against the current index.
// Every baseline element receives exactly one status; identical inputs yield
// identical output, including candidate ordering.
func (d *Detector) Compare(baseline, current *element.Index) []Result {
	elements := baseline.Elements()
	results := make([]Result, 0, len(elements))

	counts := make(map[Status]int)
	for _, e := range elements {
		r := d.classify(e, current)
		counts[r.Status]++
		results = append(results, r)
	}

	d.logger.Info("drift comparison complete", map[string]interface{}{
		"baseline":  baseline.Len(),
		"current":   current.Len(),
		"unchanged": counts[StatusUnchanged],
		"moved":     counts[StatusMoved],
		"renamed":   counts[StatusRenamed],
		"missing":   counts[StatusMissing],
		"ambiguous": counts[StatusAmbiguous],
	})

	return results
}

func (d *Detector) classify(base element.ElementRecord, current *element.Index) Result {
	result := Result{Reference: base.Tag()}

	// 1. Exact identity match
	if current.Has(base.IdentityKey()) {
		result.Status = StatusUnchanged
		result.Confidence = 1.0
		return result
	}

	// Candidate iteration order is current's stable by-path-then-by-element
	// ordering; every later tie-break inherits it.
	candidates := current.TypePathCandidates(base.Type, base.Path)

	// 2. Same (type, path, name) at a different line
	for _, c := range candidates {
		if c.Name == base.Name {
			result.Status = StatusMoved
			result.OldLine = base.Line
			result.NewLine = c.Line
			result.Confidence = 1.0
			return result
		}
	}

	// 3. Rename candidates by normalized Levenshtein similarity
	if base.Name != "" {
		type scored struct {
			record element.ElementRecord
			ratio  float64
		}
		var best float64
		var matches []scored
		for _, c := range candidates {
			if c.Name == "" {
				continue
			}
			ratio := Similarity(base.Name, c.Name)
			if ratio < d.opts.RenameThreshold {
				continue
			}
			matches = append(matches, scored{record: c, ratio: ratio})
			if ratio > best {
				best = ratio
			}
		}

		if len(matches) > 0 {
			var tied []scored
			for _, m := range matches {
				if best-m.ratio <= d.opts.AmbiguityEpsilon {
					tied = append(tied, m)
				}
			}

			if len(tied) >= 2 {
				// Never silently pick one: attach all tied candidates
				result.Status = StatusAmbiguous
				result.OldName = base.Name
				result.OldLine = base.Line
				result.Confidence = best
				for _, m := range tied {
					result.Candidates = append(result.Candidates, m.record)
				}
				return result
			}

			winner := tied[0]
			result.Status = StatusRenamed
			result.OldName = base.Name
			result.NewName = winner.record.Name
			result.OldLine = base.Line
			result.NewLine = winner.record.Line
			result.Confidence = winner.ratio
			return result
		}
	}

	// 5. Nothing reached the threshold
	result.Status = StatusMissing
	result.OldLine = base.Line
	return result
}
