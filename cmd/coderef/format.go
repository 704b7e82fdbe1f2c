package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ParseResponseCLI:
		return formatParseHuman(v)
	case *ScanResponseCLI:
		return formatScanHuman(v)
	case *QueryResponseCLI:
		return formatQueryHuman(v)
	case *ImpactResponseCLI:
		return formatImpactHuman(v)
	case *DriftResponseCLI:
		return formatDriftHuman(v)
	case *SnapshotListResponseCLI:
		return formatSnapshotListHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatParseHuman(resp *ParseResponseCLI) (string, error) {
	var b strings.Builder

	for _, r := range resp.References {
		b.WriteString(fmt.Sprintf("%s\n", r.Tag))
		b.WriteString(fmt.Sprintf("  Type: %s (%s)\n", r.Type, r.KindName))
		b.WriteString(fmt.Sprintf("  Path: %s\n", r.Path))
		if r.Element != "" {
			b.WriteString(fmt.Sprintf("  Element: %s\n", r.Element))
		}
		if r.Line > 0 {
			b.WriteString(fmt.Sprintf("  Line: %d\n", r.Line))
		}
		if len(r.Metadata) > 0 {
			b.WriteString("  Metadata:\n")
			for _, f := range r.Metadata {
				b.WriteString(fmt.Sprintf("    %s = %s\n", f.Key, f.Value))
			}
		}
		b.WriteString(fmt.Sprintf("  Identity: %s\n\n", r.Identity))
	}

	return b.String(), nil
}

func formatScanHuman(resp *ScanResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Scan Ingested\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	if resp.Tool != "" {
		b.WriteString(fmt.Sprintf("Tool: %s\n", resp.Tool))
	}
	b.WriteString(fmt.Sprintf("Elements: %d\n", resp.Elements))
	b.WriteString(fmt.Sprintf("Files: %d\n", resp.Files))
	b.WriteString(fmt.Sprintf("Edges: %d\n", resp.Edges))
	if len(resp.Languages) > 0 {
		b.WriteString(fmt.Sprintf("Languages: %s\n", strings.Join(resp.Languages, ", ")))
	}
	if resp.SnapshotID != "" {
		b.WriteString(fmt.Sprintf("Snapshot: %s\n", resp.SnapshotID))
	}

	if len(resp.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("\nWarnings (%d):\n", len(resp.Warnings)))
		for _, w := range resp.Warnings {
			b.WriteString(fmt.Sprintf("  ! [%s] %s\n", w.Code, w.Message))
		}
	}

	return b.String(), nil
}

func formatQueryHuman(resp *QueryResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Found %d elements", resp.TotalCount))
	if len(resp.Elements) < resp.TotalCount {
		b.WriteString(fmt.Sprintf(" (showing %d)", len(resp.Elements)))
	}
	b.WriteString("\n\n")

	for i, el := range resp.Elements {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, el.Tag))
		if el.Language != "" {
			b.WriteString(fmt.Sprintf("   Language: %s\n", el.Language))
		}
		if el.HasRelationships != nil {
			b.WriteString(fmt.Sprintf("   Relationships: %v\n", *el.HasRelationships))
		}
	}

	return b.String(), nil
}

func formatImpactHuman(resp *ImpactResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Impact Analysis: %s\n", resp.Reference))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("High:   %d\n", resp.Summary.High))
	b.WriteString(fmt.Sprintf("Medium: %d\n", resp.Summary.Medium))
	b.WriteString(fmt.Sprintf("Low:    %d\n\n", resp.Summary.Low))

	for _, item := range resp.Affected {
		b.WriteString(fmt.Sprintf("  [%s] %s (distance %d)\n", item.Level, item.Node, item.Distance))
	}

	return b.String(), nil
}

func formatDriftHuman(resp *DriftResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString("Drift Report\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Baseline: %s\n", resp.BaselineID))
	b.WriteString(fmt.Sprintf("Unchanged: %d  Moved: %d  Renamed: %d  Ambiguous: %d  Missing: %d\n\n",
		resp.Summary.Unchanged, resp.Summary.Moved, resp.Summary.Renamed,
		resp.Summary.Ambiguous, resp.Summary.Missing))

	for _, r := range resp.Results {
		if r.Status == "unchanged" {
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s\n", statusMarker(r.Status), r.Reference))
		switch r.Status {
		case "moved":
			b.WriteString(fmt.Sprintf("    line %d -> %d\n", r.OldLine, r.NewLine))
		case "renamed":
			b.WriteString(fmt.Sprintf("    %s -> %s (confidence %.2f)\n", r.OldName, r.NewName, r.Confidence))
		case "ambiguous":
			b.WriteString(fmt.Sprintf("    %d candidates:\n", len(r.Candidates)))
			for _, c := range r.Candidates {
				b.WriteString(fmt.Sprintf("      - %s\n", c))
			}
		}
	}

	return b.String(), nil
}

func statusMarker(status string) string {
	switch status {
	case "moved":
		return "~"
	case "renamed":
		return ">"
	case "ambiguous":
		return "?"
	case "missing":
		return "x"
	default:
		return " "
	}
}

func formatSnapshotListHuman(resp *SnapshotListResponseCLI) (string, error) {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Snapshots (%d)\n", len(resp.Snapshots)))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, s := range resp.Snapshots {
		b.WriteString(fmt.Sprintf("%s\n", s.ID))
		b.WriteString(fmt.Sprintf("  Created: %s\n", s.CreatedAt))
		b.WriteString(fmt.Sprintf("  Elements: %d in %d files\n", s.TotalElements, s.TotalFiles))
		if len(s.Languages) > 0 {
			b.WriteString(fmt.Sprintf("  Languages: %s\n", strings.Join(s.Languages, ", ")))
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}
