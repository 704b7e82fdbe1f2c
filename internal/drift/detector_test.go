package drift

import (
	"encoding/json"
	"math"
	"testing"

	"coderef/internal/element"
	"coderef/internal/tag"
)

func baselineIndex() *element.Index {
	return element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
	})
}

func TestCompareMoved(t *testing.T) {
	// Same name and path, new line
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 40},
	})

	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), current)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if r.Status != StatusMoved {
		t.Fatalf("expected moved, got %s", r.Status)
	}
	if r.OldLine != 24 || r.NewLine != 40 {
		t.Errorf("expected lines 24 -> 40, got %d -> %d", r.OldLine, r.NewLine)
	}
	if r.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %f", r.Confidence)
	}
}

func TestCompareRenamed(t *testing.T) {
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticateUser", Line: 24},
	})

	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), current)
	r := results[0]
	if r.Status != StatusRenamed {
		t.Fatalf("expected renamed, got %s", r.Status)
	}
	if r.OldName != "authenticate" || r.NewName != "authenticateUser" {
		t.Errorf("expected authenticate -> authenticateUser, got %s -> %s", r.OldName, r.NewName)
	}

	want := Similarity("authenticate", "authenticateUser")
	if want < 0.7 {
		t.Fatalf("fixture broken: similarity %f below threshold", want)
	}
	if math.Abs(r.Confidence-want) > 1e-9 {
		t.Errorf("expected confidence %f, got %f", want, r.Confidence)
	}
}

func TestCompareMissing(t *testing.T) {
	// Nothing at the path resembles the baseline name
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "zzz", Line: 5},
	})

	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), current)
	if results[0].Status != StatusMissing {
		t.Errorf("expected missing, got %s", results[0].Status)
	}
}

func TestCompareMissingEmptyPath(t *testing.T) {
	current := element.Build(nil)

	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), current)
	if results[0].Status != StatusMissing {
		t.Errorf("expected missing, got %s", results[0].Status)
	}
}

func TestCompareUnchanged(t *testing.T) {
	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), baselineIndex())
	if results[0].Status != StatusUnchanged {
		t.Errorf("expected unchanged, got %s", results[0].Status)
	}
}

func TestCompareAmbiguous(t *testing.T) {
	// Two candidates with identical similarity to the baseline name
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticateA", Line: 30},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticateB", Line: 60},
	})

	results := NewDetector(DefaultOptions(), nil).Compare(baselineIndex(), current)
	r := results[0]
	if r.Status != StatusAmbiguous {
		t.Fatalf("expected ambiguous, got %s", r.Status)
	}
	if len(r.Candidates) != 2 {
		t.Fatalf("expected both tied candidates attached, got %d", len(r.Candidates))
	}
	// Candidates follow current's stable by-path-then-by-element ordering
	if r.Candidates[0].Name != "authenticateA" || r.Candidates[1].Name != "authenticateB" {
		t.Errorf("unexpected candidate order: %s, %s", r.Candidates[0].Name, r.Candidates[1].Name)
	}
}

func TestCompareExhaustive(t *testing.T) {
	baseline := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "logout", Line: 58},
		{Type: tag.TypeClass, Path: "models/user", Name: "User", Line: 10},
		{Type: tag.TypeFunction, Path: "billing/invoice", Name: "render", Line: 7},
	})
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "logOut", Line: 58},
		{Type: tag.TypeClass, Path: "models/user", Name: "User", Line: 22},
	})

	results := NewDetector(DefaultOptions(), nil).Compare(baseline, current)
	if len(results) != 4 {
		t.Fatalf("every baseline reference must receive exactly one status, got %d results", len(results))
	}

	statuses := map[string]Status{}
	for _, r := range results {
		statuses[r.Reference] = r.Status
	}
	expect := map[string]Status{
		"@Fn/auth/login#authenticate:24": StatusUnchanged,
		"@Fn/auth/login#logout:58":       StatusRenamed,
		"@Cl/models/user#User:10":        StatusMoved,
		"@Fn/billing/invoice#render:7":   StatusMissing,
	}
	for ref, want := range expect {
		if statuses[ref] != want {
			t.Errorf("%s: expected %s, got %s", ref, want, statuses[ref])
		}
	}
}

func TestCompareDeterministicOutput(t *testing.T) {
	baseline := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "logout", Line: 58},
	})
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticateA", Line: 30},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticateB", Line: 60},
	})

	detector := NewDetector(DefaultOptions(), nil)

	first, err := json.Marshal(detector.Compare(baseline, current))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(detector.Compare(baseline, current))
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("output not byte-identical:\n%s\n%s", first, again)
		}
	}
}

func TestCompareThresholdConfigurable(t *testing.T) {
	current := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authErr", Line: 24},
	})
	ratio := Similarity("authenticate", "authErr")

	strict := NewDetector(Options{RenameThreshold: ratio + 0.05, AmbiguityEpsilon: 0.01}, nil)
	if got := strict.Compare(baselineIndex(), current)[0].Status; got != StatusMissing {
		t.Errorf("above-ratio threshold: expected missing, got %s", got)
	}

	lenient := NewDetector(Options{RenameThreshold: ratio - 0.05, AmbiguityEpsilon: 0.01}, nil)
	if got := lenient.Compare(baselineIndex(), current)[0].Status; got != StatusRenamed {
		t.Errorf("below-ratio threshold: expected renamed, got %s", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"authenticate", "authenticate", 1.0},
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"authenticate", "authenticateUser", 0.75},
		{"kitten", "sitting", 1.0 - 3.0/7.0},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
