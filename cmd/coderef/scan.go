package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderef/internal/element"
	"coderef/internal/graph"
	"coderef/internal/ingest"
	"coderef/internal/snapshot"
)

var (
	scanFormat string
	scanSave   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Ingest a scan result",
	Long: `Ingest a scan result file, build the element index and dependency
graph, and store the result as a new snapshot.

Supported inputs: native JSON (.json), YAML (.yaml/.yml), and binary
SCIP indexes (.scip). With no argument the configured default input
file is used.

Examples:
  coderef scan scan.json
  coderef scan index.scip
  coderef scan scan.yaml --save=false`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "human", "Output format (json, human)")
	scanCmd.Flags().BoolVar(&scanSave, "save", true, "Store the result as a snapshot")
	rootCmd.AddCommand(scanCmd)
}

// ScanResponseCLI contains scan ingestion results for CLI output
type ScanResponseCLI struct {
	Tool       string       `json:"tool,omitempty"`
	Elements   int          `json:"elements"`
	Files      int          `json:"files"`
	Edges      int          `json:"edges"`
	Languages  []string     `json:"languages,omitempty"`
	SnapshotID string       `json:"snapshotId,omitempty"`
	Warnings   []WarningCLI `json:"warnings,omitempty"`
}

// WarningCLI is one non-fatal condition reported during ingestion
type WarningCLI struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func runScan(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	input := cfg.Scan.DefaultInput
	if len(args) == 1 {
		input = args[0]
	}

	result, err := ingest.ReadScanFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", input, err)
		os.Exit(1)
	}

	idx := element.Build(result.Elements)
	g := graph.Build(idx, result.Edges)

	resp := &ScanResponseCLI{
		Tool:      result.Tool,
		Elements:  idx.Len(),
		Files:     len(idx.Paths()),
		Edges:     g.NumEdges(),
		Languages: idx.Languages(),
	}
	for _, w := range idx.Warnings() {
		resp.Warnings = append(resp.Warnings, WarningCLI{Code: string(w.Code), Message: w.Message})
	}
	for _, w := range g.Warnings() {
		resp.Warnings = append(resp.Warnings, WarningCLI{Code: string(w.Code), Message: w.Message})
	}

	if scanSave {
		snap := snapshot.New(result.Elements, result.Edges)
		store := mustOpenStore(cfg, logger)
		defer store.Close()
		if err := store.SaveSnapshot(snap); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing snapshot: %v\n", err)
			os.Exit(1)
		}
		if _, err := store.Prune(cfg.Storage.KeepSnapshots); err != nil {
			fmt.Fprintf(os.Stderr, "Error pruning snapshots: %v\n", err)
			os.Exit(1)
		}
		resp.SnapshotID = snap.ID
	}

	output, err := FormatResponse(resp, OutputFormat(scanFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Scan ingested", map[string]interface{}{
		"input":    input,
		"elements": resp.Elements,
		"edges":    resp.Edges,
		"warnings": len(resp.Warnings),
		"duration": time.Since(start).Milliseconds(),
	})
}
