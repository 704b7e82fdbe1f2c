// Package query provides the public read surface over one snapshot pair:
// filtered element lookup, relationship annotation, and impact analysis.
package query

import (
	"io"

	"coderef/internal/element"
	"coderef/internal/graph"
	"coderef/internal/logging"
	"coderef/internal/tag"
)

// Engine composes an element index and its dependency graph. An Engine is
// constructed once per snapshot and owns both structures; callers receive
// read-only result values, never references into internal maps.
type Engine struct {
	index  *element.Index
	graph  *graph.Graph
	logger *logging.Logger
}

// NewEngine creates a query engine over one snapshot. A nil logger discards output.
func NewEngine(idx *element.Index, g *graph.Graph, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel, Output: io.Discard})
	}
	return &Engine{
		index:  idx,
		graph:  g,
		logger: logger.WithComponent("query"),
	}
}

// Request is a structured element query
type Request struct {
	Filter               element.Filter `json:"filter"`
	IncludeRelationships bool           `json:"includeRelationships,omitempty"`
}

// ResultElement is one matched element with its canonical tag and optional
// relationship annotation
type ResultElement struct {
	element.ElementRecord
	Tag              string `json:"tag"`
	HasRelationships *bool  `json:"hasRelationships,omitempty"`
}

// FindResult carries matched elements and the total match count before
// limit truncation
type FindResult struct {
	Elements   []ResultElement `json:"elements"`
	TotalCount int             `json:"totalCount"`
}

// Find applies the element filter and, when requested, annotates each result
// with an O(1) adjacency existence check. It never performs a traversal.
func (e *Engine) Find(req Request) (*FindResult, error) {
	unlimited := req.Filter
	unlimited.Limit = 0
	all, err := e.index.Query(unlimited)
	if err != nil {
		return nil, err
	}

	matched := all
	if req.Filter.Limit > 0 && len(matched) > req.Filter.Limit {
		matched = matched[:req.Filter.Limit]
	}

	result := &FindResult{
		Elements:   make([]ResultElement, 0, len(matched)),
		TotalCount: len(all),
	}
	for _, rec := range matched {
		re := ResultElement{ElementRecord: rec, Tag: rec.Tag()}
		if req.IncludeRelationships {
			has := e.graph.HasAdjacency(rec.IdentityKey())
			re.HasRelationships = &has
		}
		result.Elements = append(result.Elements, re)
	}

	e.logger.Debug("find complete", map[string]interface{}{
		"matched":  result.TotalCount,
		"returned": len(result.Elements),
	})
	return result, nil
}

// ImpactLevel buckets traversal distance into risk levels
type ImpactLevel string

const (
	// ImpactHigh is direct consumers (distance 1)
	ImpactHigh ImpactLevel = "high"
	// ImpactMedium is distance-2 consumers
	ImpactMedium ImpactLevel = "medium"
	// ImpactLow is distance 3 and beyond
	ImpactLow ImpactLevel = "low"
)

// LevelForDistance maps a traversal distance to its impact level. The
// bucketing is a fixed policy: depth 1 is high, depth 2 medium, deeper low.
func LevelForDistance(distance int) ImpactLevel {
	switch distance {
	case 1:
		return ImpactHigh
	case 2:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// AffectedElement is one node reached by impact traversal, resolved back to
// its element records where the index knows them
type AffectedElement struct {
	Node        string                  `json:"node"`
	Distance    int                     `json:"distance"`
	ImpactLevel ImpactLevel             `json:"impactLevel"`
	Elements    []element.ElementRecord `json:"elements,omitempty"`
}

// ImpactSummary aggregates an impact traversal by level
type ImpactSummary struct {
	TotalAffected int `json:"totalAffected"`
	High          int `json:"high"`
	Medium        int `json:"medium"`
	Low           int `json:"low"`
	MaxDepth      int `json:"maxDepth"`
}

// ImpactResult is the full impact analysis for one reference
type ImpactResult struct {
	Reference        string            `json:"reference"`
	AffectedElements []AffectedElement `json:"affectedElements"`
	Summary          ImpactSummary     `json:"impactSummary"`
}

// Impact runs depth-limited transitive impact analysis from a reference and
// buckets the reached nodes by distance.
func (e *Engine) Impact(ref tag.Reference, depth int) *ImpactResult {
	node := ref.IdentityKey()
	if !e.index.Has(node) {
		e.logger.Warn("impact requested for unknown reference", map[string]interface{}{
			"reference": tag.Generate(ref),
		})
	}

	if depth <= 0 {
		depth = graph.DefaultMaxDepth
	}

	impacted := e.graph.TransitiveImpact(node, depth)
	result := &ImpactResult{
		Reference:        tag.Generate(ref),
		AffectedElements: make([]AffectedElement, 0, len(impacted)),
		Summary:          ImpactSummary{MaxDepth: depth},
	}

	for _, n := range impacted {
		level := LevelForDistance(n.Distance)
		result.AffectedElements = append(result.AffectedElements, AffectedElement{
			Node:        n.Node,
			Distance:    n.Distance,
			ImpactLevel: level,
			Elements:    e.index.Lookup(n.Node),
		})
		result.Summary.TotalAffected++
		switch level {
		case ImpactHigh:
			result.Summary.High++
		case ImpactMedium:
			result.Summary.Medium++
		case ImpactLow:
			result.Summary.Low++
		}
	}

	return result
}
