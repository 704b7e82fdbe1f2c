package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderef/internal/drift"
	"coderef/internal/element"
	"coderef/internal/ingest"
	"coderef/internal/snapshot"
	"coderef/internal/storage"
)

var (
	driftFormat    string
	driftBaseline  string
	driftThreshold float64
	driftEpsilon   float64
)

var driftCmd = &cobra.Command{
	Use:   "drift [scan-file]",
	Short: "Detect reference drift",
	Long: `Compare a fresh scan against a stored baseline snapshot and classify
every baseline reference as unchanged, moved, renamed, ambiguous, or
missing.

The most recent snapshot is the baseline unless --baseline names a
specific snapshot ID. With no scan file the latest snapshot is the
current state, so --baseline must name an older snapshot.

Examples:
  coderef drift scan.json
  coderef drift scan.json --baseline 2f1c...
  coderef drift --baseline 2f1c...
  coderef drift scan.json --threshold 0.8 --format json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDrift,
}

func init() {
	driftCmd.Flags().StringVar(&driftFormat, "format", "human", "Output format (json, human)")
	driftCmd.Flags().StringVar(&driftBaseline, "baseline", "", "Baseline snapshot ID (default: latest)")
	driftCmd.Flags().Float64Var(&driftThreshold, "threshold", 0, "Rename similarity threshold (default from config)")
	driftCmd.Flags().Float64Var(&driftEpsilon, "epsilon", 0, "Ambiguity tie window (default from config)")
	rootCmd.AddCommand(driftCmd)
}

// DriftResponseCLI contains drift detection results for CLI output
type DriftResponseCLI struct {
	BaselineID string          `json:"baselineId"`
	Summary    DriftSummaryCLI `json:"summary"`
	Results    []DriftItemCLI  `json:"results"`
}

// DriftSummaryCLI counts results by status
type DriftSummaryCLI struct {
	Unchanged int `json:"unchanged"`
	Moved     int `json:"moved"`
	Renamed   int `json:"renamed"`
	Ambiguous int `json:"ambiguous"`
	Missing   int `json:"missing"`
}

// DriftItemCLI is one classified baseline reference
type DriftItemCLI struct {
	Status     string   `json:"status"`
	Reference  string   `json:"reference"`
	OldLine    int      `json:"oldLine,omitempty"`
	NewLine    int      `json:"newLine,omitempty"`
	OldName    string   `json:"oldName,omitempty"`
	NewName    string   `json:"newName,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

func runDrift(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	store := mustOpenStore(cfg, logger)
	defer store.Close()

	var current *element.Index
	if len(args) > 0 {
		result, err := ingest.ReadScanFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", args[0], err)
			os.Exit(1)
		}
		current = element.Build(result.Elements)
	} else {
		if driftBaseline == "" {
			fmt.Fprintln(os.Stderr, "Error: --baseline is required when no scan file is given")
			os.Exit(1)
		}
		latest, err := store.LatestSnapshot()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading latest snapshot: %v\n", err)
			os.Exit(1)
		}
		current = latest.Index()
	}

	snap, err := loadBaseline(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading baseline: %v\n", err)
		os.Exit(1)
	}
	baseline := snap.Index()

	opts := drift.Options{
		RenameThreshold:  cfg.Drift.RenameThreshold,
		AmbiguityEpsilon: cfg.Drift.AmbiguityEpsilon,
	}
	if driftThreshold > 0 {
		opts.RenameThreshold = driftThreshold
	}
	if driftEpsilon > 0 {
		opts.AmbiguityEpsilon = driftEpsilon
	}

	detector := drift.NewDetector(opts, logger)
	results := detector.Compare(baseline, current)

	resp := &DriftResponseCLI{BaselineID: snap.ID}
	for _, r := range results {
		item := DriftItemCLI{
			Status:     string(r.Status),
			Reference:  r.Reference,
			OldLine:    r.OldLine,
			NewLine:    r.NewLine,
			OldName:    r.OldName,
			NewName:    r.NewName,
			Confidence: r.Confidence,
		}
		for _, c := range r.Candidates {
			item.Candidates = append(item.Candidates, c.Tag())
		}
		resp.Results = append(resp.Results, item)

		switch r.Status {
		case drift.StatusUnchanged:
			resp.Summary.Unchanged++
		case drift.StatusMoved:
			resp.Summary.Moved++
		case drift.StatusRenamed:
			resp.Summary.Renamed++
		case drift.StatusAmbiguous:
			resp.Summary.Ambiguous++
		case drift.StatusMissing:
			resp.Summary.Missing++
		}
	}

	output, err := FormatResponse(resp, OutputFormat(driftFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Drift detection completed", map[string]interface{}{
		"baseline":  snap.ID,
		"compared":  len(results),
		"unchanged": resp.Summary.Unchanged,
		"duration":  time.Since(start).Milliseconds(),
	})
}

func loadBaseline(store *storage.Store) (*snapshot.Snapshot, error) {
	if driftBaseline != "" {
		return store.GetSnapshot(driftBaseline)
	}
	return store.LatestSnapshot()
}
