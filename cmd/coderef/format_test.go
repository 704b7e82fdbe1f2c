package main

import (
	"strings"
	"testing"
)

func TestFormatResponseJSON(t *testing.T) {
	resp := &QueryResponseCLI{
		TotalCount: 2,
		Elements: []QueryResultCLI{
			{Tag: "@Fn/auth/login#authenticate:24", Type: "Fn", Path: "auth/login", Name: "authenticate", Line: 24},
		},
	}

	out, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.Contains(out, `"totalCount": 2`) {
		t.Errorf("missing totalCount in output:\n%s", out)
	}
	if !strings.Contains(out, `"@Fn/auth/login#authenticate:24"`) {
		t.Errorf("missing tag in output:\n%s", out)
	}
}

func TestFormatResponseUnsupported(t *testing.T) {
	if _, err := FormatResponse(&QueryResponseCLI{}, OutputFormat("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatDriftHuman(t *testing.T) {
	resp := &DriftResponseCLI{
		BaselineID: "abc-123",
		Summary:    DriftSummaryCLI{Unchanged: 3, Moved: 1, Renamed: 1, Missing: 1},
		Results: []DriftItemCLI{
			{Status: "unchanged", Reference: "@Fn/auth/session#refresh:12"},
			{Status: "moved", Reference: "@Fn/auth/login#authenticate:24", OldLine: 24, NewLine: 40},
			{Status: "renamed", Reference: "@Fn/auth/login#authenticate:24",
				OldName: "authenticate", NewName: "authenticateUser", Confidence: 0.75},
			{Status: "missing", Reference: "@Fn/auth/legacy#md5hash:9"},
		},
	}

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	if !strings.Contains(out, "Unchanged: 3") {
		t.Errorf("missing summary:\n%s", out)
	}
	if !strings.Contains(out, "line 24 -> 40") {
		t.Errorf("missing move detail:\n%s", out)
	}
	if !strings.Contains(out, "authenticate -> authenticateUser") {
		t.Errorf("missing rename detail:\n%s", out)
	}
	// Unchanged references stay out of the detail listing
	if strings.Contains(out, "refresh") {
		t.Errorf("unchanged reference should not be listed:\n%s", out)
	}
}

func TestFormatImpactHuman(t *testing.T) {
	resp := &ImpactResponseCLI{
		Reference: "@Fn/auth/login#authenticate:24",
		Summary:   ImpactSummaryCLI{Total: 3, High: 1, Medium: 1, Low: 1},
		Affected: []AffectedItemCLI{
			{Node: "Fn:api/handler#login:10", Distance: 1, Level: "high"},
			{Node: "Fn:api/routes#mount:5", Distance: 2, Level: "medium"},
			{Node: "Fn:main#main:1", Distance: 3, Level: "low"},
		},
	}

	out, err := FormatResponse(resp, FormatHuman)
	if err != nil {
		t.Fatalf("FormatResponse: %v", err)
	}
	for _, want := range []string{"High:   1", "[high] Fn:api/handler#login:10 (distance 1)", "[low] Fn:main#main:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestStatusMarker(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"moved", "~"},
		{"renamed", ">"},
		{"ambiguous", "?"},
		{"missing", "x"},
		{"unchanged", " "},
	}
	for _, tt := range tests {
		if got := statusMarker(tt.status); got != tt.want {
			t.Errorf("statusMarker(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
