package query

import (
	"testing"

	"coderef/internal/element"
	"coderef/internal/graph"
	"coderef/internal/tag"
)

func engineFixture() *Engine {
	idx := element.Build([]element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
		{Type: tag.TypeFunction, Path: "auth/login", Name: "logout", Line: 58},
		{Type: tag.TypeFunction, Path: "auth/session", Name: "refresh", Line: 12},
		{Type: tag.TypeFunction, Path: "auth/token", Name: "issue", Line: 19},
		{Type: tag.TypeClass, Path: "models/user", Name: "User", Line: 10},
		{Type: tag.TypeFunction, Path: "api/handlers", Name: "loginHandler", Line: 30},
		{Type: tag.TypeFunction, Path: "api/routes", Name: "register", Line: 5},
		{Type: tag.TypeFunction, Path: "cmd/server", Name: "main", Line: 1},
		{Type: tag.TypeConstant, Path: "config/limits", Name: "MaxRetries", Line: 3},
		{Type: tag.TypeFunction, Path: "billing/invoice", Name: "render", Line: 7},
	})
	facts := []graph.EdgeFact{
		{Source: "Fn:api/handlers#loginHandler:30", Target: "Fn:auth/login#authenticate:24", Kind: graph.EdgeCalls},
		{Source: "Fn:api/routes#register:5", Target: "Fn:api/handlers#loginHandler:30", Kind: graph.EdgeCalls},
		{Source: "Fn:cmd/server#main:1", Target: "Fn:api/routes#register:5", Kind: graph.EdgeImports},
	}
	return NewEngine(idx, graph.Build(idx, facts), nil)
}

func TestFindTypeAndGlob(t *testing.T) {
	// 10 indexed elements, 4 functions under auth/*
	engine := engineFixture()

	got, err := engine.Find(Request{Filter: element.Filter{
		Types:       []tag.Type{tag.TypeFunction},
		PathPattern: "auth/*",
	}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	want := []string{"authenticate", "logout", "refresh", "issue"}
	if got.TotalCount != len(want) || len(got.Elements) != len(want) {
		t.Fatalf("expected %d matches, got total=%d returned=%d", len(want), got.TotalCount, len(got.Elements))
	}
	for i, name := range want {
		if got.Elements[i].Name != name {
			t.Errorf("result[%d] = %s, want %s (scan order)", i, got.Elements[i].Name, name)
		}
	}
}

func TestFindTotalCountWithLimit(t *testing.T) {
	engine := engineFixture()

	got, err := engine.Find(Request{Filter: element.Filter{
		Types: []tag.Type{tag.TypeFunction},
		Limit: 3,
	}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(got.Elements) != 3 {
		t.Errorf("expected 3 returned, got %d", len(got.Elements))
	}
	if got.TotalCount != 8 {
		t.Errorf("expected total count 8, got %d", got.TotalCount)
	}
}

func TestFindRelationshipAnnotation(t *testing.T) {
	engine := engineFixture()

	got, err := engine.Find(Request{
		Filter:               element.Filter{PathPattern: "auth/login"},
		IncludeRelationships: true,
	})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}

	byName := map[string]*bool{}
	for _, e := range got.Elements {
		byName[e.Name] = e.HasRelationships
	}

	if byName["authenticate"] == nil || !*byName["authenticate"] {
		t.Error("authenticate participates in the graph, expected hasRelationships=true")
	}
	if byName["logout"] == nil || *byName["logout"] {
		t.Error("logout has no edges, expected hasRelationships=false")
	}
}

func TestFindNoAnnotationByDefault(t *testing.T) {
	engine := engineFixture()

	got, err := engine.Find(Request{Filter: element.Filter{PathPattern: "auth/login"}})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	for _, e := range got.Elements {
		if e.HasRelationships != nil {
			t.Errorf("element %s annotated without includeRelationships", e.Name)
		}
	}
}

func TestImpactBuckets(t *testing.T) {
	engine := engineFixture()

	ref := tag.Reference{Type: tag.TypeFunction, Path: "auth/login", Element: "authenticate", Line: 24}
	got := engine.Impact(ref, 3)

	if got.Summary.TotalAffected != 3 {
		t.Fatalf("expected 3 affected elements, got %d", got.Summary.TotalAffected)
	}
	if got.Summary.High != 1 || got.Summary.Medium != 1 || got.Summary.Low != 1 {
		t.Errorf("unexpected level counts: %+v", got.Summary)
	}

	levels := map[int]ImpactLevel{}
	for _, a := range got.AffectedElements {
		levels[a.Distance] = a.ImpactLevel
		if len(a.Elements) == 0 {
			t.Errorf("node %s not resolved to element records", a.Node)
		}
	}
	if levels[1] != ImpactHigh || levels[2] != ImpactMedium || levels[3] != ImpactLow {
		t.Errorf("bucketing policy broken: %v", levels)
	}
}

func TestImpactUnknownReference(t *testing.T) {
	engine := engineFixture()

	ref := tag.Reference{Type: tag.TypeFunction, Path: "no/where", Element: "ghost", Line: 1}
	got := engine.Impact(ref, 3)

	if got.Summary.TotalAffected != 0 || len(got.AffectedElements) != 0 {
		t.Errorf("expected empty impact for unknown reference, got %+v", got)
	}
}

func TestLevelForDistance(t *testing.T) {
	tests := []struct {
		distance int
		want     ImpactLevel
	}{
		{1, ImpactHigh},
		{2, ImpactMedium},
		{3, ImpactLow},
		{7, ImpactLow},
	}
	for _, tt := range tests {
		if got := LevelForDistance(tt.distance); got != tt.want {
			t.Errorf("LevelForDistance(%d) = %s, want %s", tt.distance, got, tt.want)
		}
	}
}
