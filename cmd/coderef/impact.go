package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderef/internal/query"
	"coderef/internal/tag"
)

var (
	impactDepth  int
	impactFormat string
)

var impactCmd = &cobra.Command{
	Use:   "impact <tag>",
	Short: "Analyze change impact",
	Long: `Walk incoming dependency edges from a reference and bucket the
affected elements by distance: direct consumers are high impact,
distance two is medium, anything further is low.

Examples:
  coderef impact '@Fn/auth/login#authenticate:24'
  coderef impact '@Cl/models/user#User:5' --depth 5`,
	Args: cobra.ExactArgs(1),
	Run:  runImpact,
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0, "Maximum traversal depth (default from config)")
	impactCmd.Flags().StringVar(&impactFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(impactCmd)
}

// ImpactResponseCLI contains impact analysis results for CLI output
type ImpactResponseCLI struct {
	Reference string            `json:"reference"`
	Summary   ImpactSummaryCLI  `json:"summary"`
	Affected  []AffectedItemCLI `json:"affected"`
}

// ImpactSummaryCLI aggregates affected counts by level
type ImpactSummaryCLI struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// AffectedItemCLI is one affected element
type AffectedItemCLI struct {
	Node     string `json:"node"`
	Distance int    `json:"distance"`
	Level    string `json:"level"`
}

func runImpact(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	ref, err := tag.Parse(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing reference: %v\n", err)
		os.Exit(1)
	}

	depth := impactDepth
	if depth <= 0 {
		depth = cfg.Impact.MaxDepth
	}

	store := mustOpenStore(cfg, logger)
	defer store.Close()

	snap, err := store.LatestSnapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		os.Exit(1)
	}
	idx := snap.Index()
	g := snap.BuildGraph(idx)
	engine := query.NewEngine(idx, g, logger)

	result := engine.Impact(ref, depth)

	resp := &ImpactResponseCLI{
		Reference: result.Reference,
		Summary: ImpactSummaryCLI{
			Total:  result.Summary.TotalAffected,
			High:   result.Summary.High,
			Medium: result.Summary.Medium,
			Low:    result.Summary.Low,
		},
	}
	for _, item := range result.AffectedElements {
		resp.Affected = append(resp.Affected, AffectedItemCLI{
			Node:     item.Node,
			Distance: item.Distance,
			Level:    string(item.ImpactLevel),
		})
	}

	output, err := FormatResponse(resp, OutputFormat(impactFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Impact analysis completed", map[string]interface{}{
		"reference": result.Reference,
		"affected":  result.Summary.TotalAffected,
		"duration":  time.Since(start).Milliseconds(),
	})
}
