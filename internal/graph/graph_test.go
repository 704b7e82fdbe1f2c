package graph

import (
	"reflect"
	"testing"

	"coderef/internal/element"
	"coderef/internal/errors"
	"coderef/internal/tag"
)

func graphFixture() (*element.Index, []EdgeFact) {
	records := []element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
		{Type: tag.TypeFunction, Path: "api/handlers", Name: "loginHandler", Line: 10},
		{Type: tag.TypeFunction, Path: "api/routes", Name: "register", Line: 5},
		{Type: tag.TypeFunction, Path: "cmd/server", Name: "main", Line: 1},
		{Type: tag.TypeFunction, Path: "auth/crypto", Name: "hash", Line: 8},
	}
	facts := []EdgeFact{
		{Source: "Fn:api/handlers#loginHandler:10", Target: "Fn:auth/login#authenticate:24", Kind: EdgeCalls},
		{Source: "Fn:api/routes#register:5", Target: "Fn:api/handlers#loginHandler:10", Kind: EdgeCalls},
		{Source: "Fn:cmd/server#main:1", Target: "Fn:api/routes#register:5", Kind: EdgeImports},
		{Source: "Fn:auth/login#authenticate:24", Target: "Fn:auth/crypto#hash:8", Kind: EdgeCalls},
	}
	return element.Build(records), facts
}

func TestConsumersAndDependencies(t *testing.T) {
	idx, facts := graphFixture()
	g := Build(idx, facts)

	consumers := g.ConsumersOf("Fn:auth/login#authenticate:24")
	if !reflect.DeepEqual(consumers, []string{"Fn:api/handlers#loginHandler:10"}) {
		t.Errorf("unexpected consumers: %v", consumers)
	}

	deps := g.DependenciesOf("Fn:auth/login#authenticate:24")
	if !reflect.DeepEqual(deps, []string{"Fn:auth/crypto#hash:8"}) {
		t.Errorf("unexpected dependencies: %v", deps)
	}

	if len(g.Warnings()) != 0 {
		t.Errorf("clean graph produced warnings: %+v", g.Warnings())
	}
}

func TestTransitiveImpactDepthLimit(t *testing.T) {
	idx, facts := graphFixture()
	g := Build(idx, facts)

	got := g.TransitiveImpact("Fn:auth/login#authenticate:24", 2)
	want := []ImpactedNode{
		{Node: "Fn:api/handlers#loginHandler:10", Distance: 1},
		{Node: "Fn:api/routes#register:5", Distance: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("impact = %+v, want %+v", got, want)
	}

	// Default depth of 3 reaches main through the imports edge
	got = g.TransitiveImpact("Fn:auth/login#authenticate:24", 0)
	if len(got) != 3 || got[2].Node != "Fn:cmd/server#main:1" || got[2].Distance != 3 {
		t.Errorf("default-depth impact = %+v", got)
	}
}

func TestTransitiveImpactCycleTermination(t *testing.T) {
	records := []element.ElementRecord{
		{Type: tag.TypeFunction, Path: "a/a", Name: "a", Line: 1},
		{Type: tag.TypeFunction, Path: "b/b", Name: "b", Line: 1},
		{Type: tag.TypeFunction, Path: "c/c", Name: "c", Line: 1},
	}
	// a -> b -> c -> a cycle, traversed via incoming edges
	facts := []EdgeFact{
		{Source: "Fn:a/a#a:1", Target: "Fn:b/b#b:1", Kind: EdgeCalls},
		{Source: "Fn:b/b#b:1", Target: "Fn:c/c#c:1", Kind: EdgeCalls},
		{Source: "Fn:c/c#c:1", Target: "Fn:a/a#a:1", Kind: EdgeCalls},
	}
	g := Build(element.Build(records), facts)

	got := g.TransitiveImpact("Fn:a/a#a:1", 10)

	seen := make(map[string]int)
	for _, n := range got {
		seen[n.Node]++
	}
	for node, count := range seen {
		if count > 1 {
			t.Errorf("node %s emitted %d times", node, count)
		}
	}
	if seen["Fn:a/a#a:1"] != 0 {
		t.Error("origin node must not be emitted")
	}
	if len(got) != 2 {
		t.Errorf("expected 2 impacted nodes in a 3-cycle, got %d", len(got))
	}
}

func TestTransitiveImpactDeterministic(t *testing.T) {
	idx, facts := graphFixture()
	g := Build(idx, facts)

	first := g.TransitiveImpact("Fn:auth/login#authenticate:24", 3)
	for i := 0; i < 10; i++ {
		if got := g.TransitiveImpact("Fn:auth/login#authenticate:24", 3); !reflect.DeepEqual(got, first) {
			t.Fatalf("traversal order not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestDanglingEdges(t *testing.T) {
	records := []element.ElementRecord{
		{Type: tag.TypeFunction, Path: "auth/login", Name: "authenticate", Line: 24},
	}
	facts := []EdgeFact{
		{Source: "Fn:gone/gone#gone:1", Target: "Fn:auth/login#authenticate:24", Kind: EdgeCalls},
	}
	g := Build(element.Build(records), facts)

	warnings := g.Warnings()
	if len(warnings) != 1 || warnings[0].Code != errors.DanglingEdge {
		t.Fatalf("expected one dangling_edge warning, got %+v", warnings)
	}

	// The edge is retained but excluded from traversal
	if g.NumEdges() != 1 {
		t.Errorf("dangling edge was dropped")
	}
	if got := g.ConsumersOf("Fn:auth/login#authenticate:24"); len(got) != 0 {
		t.Errorf("dangling edge leaked into traversal: %v", got)
	}
	if g.HasAdjacency("Fn:auth/login#authenticate:24") {
		t.Error("dangling edge should not count as adjacency")
	}
}

func TestExportsEdgesExcludedFromConsumers(t *testing.T) {
	records := []element.ElementRecord{
		{Type: tag.TypeFunction, Path: "a/a", Name: "a", Line: 1},
		{Type: tag.TypeModule, Path: "a", Name: "mod", Line: 1},
	}
	facts := []EdgeFact{
		{Source: "Mod:a#mod:1", Target: "Fn:a/a#a:1", Kind: EdgeExports},
	}
	g := Build(element.Build(records), facts)

	if got := g.ConsumersOf("Fn:a/a#a:1"); len(got) != 0 {
		t.Errorf("exports edge counted as consumer: %v", got)
	}
	if !g.HasAdjacency("Fn:a/a#a:1") {
		t.Error("exports edge should still count as adjacency")
	}
}
