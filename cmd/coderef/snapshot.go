package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coderef/internal/storage"
)

var (
	snapshotListFormat   string
	snapshotShowFormat   string
	snapshotExportFormat string
	snapshotExportPath   string
	snapshotKeep         int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage stored snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Run:   runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one snapshot's summary",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotShow,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a full snapshot document",
	Long: `Write a complete snapshot document, including all elements and edges.

Examples:
  coderef snapshot export 2f1c... --format yaml
  coderef snapshot export 2f1c... --output baseline.json`,
	Args: cobra.ExactArgs(1),
	Run:  runSnapshotExport,
}

var snapshotPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots",
	Run:   runSnapshotPrune,
}

func init() {
	snapshotListCmd.Flags().StringVar(&snapshotListFormat, "format", "human", "Output format (json, human)")
	snapshotShowCmd.Flags().StringVar(&snapshotShowFormat, "format", "human", "Output format (json, human)")
	snapshotExportCmd.Flags().StringVar(&snapshotExportFormat, "format", "json", "Export format (json, yaml)")
	snapshotExportCmd.Flags().StringVar(&snapshotExportPath, "output", "", "Write to file instead of stdout")
	snapshotPruneCmd.Flags().IntVar(&snapshotKeep, "keep", 0, "Snapshots to keep (default from config)")

	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotPruneCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// SnapshotListResponseCLI contains snapshot summaries for CLI output
type SnapshotListResponseCLI struct {
	Snapshots []SnapshotInfoCLI `json:"snapshots"`
}

// SnapshotInfoCLI is one snapshot summary row
type SnapshotInfoCLI struct {
	ID            string   `json:"id"`
	CreatedAt     string   `json:"createdAt"`
	TotalFiles    int      `json:"totalFiles"`
	TotalElements int      `json:"totalElements"`
	Languages     []string `json:"languages,omitempty"`
}

func runSnapshotList(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	store := mustOpenStore(cfg, logger)
	defer store.Close()

	infos, err := store.ListSnapshots()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing snapshots: %v\n", err)
		os.Exit(1)
	}

	resp := &SnapshotListResponseCLI{Snapshots: make([]SnapshotInfoCLI, 0, len(infos))}
	for _, info := range infos {
		resp.Snapshots = append(resp.Snapshots, convertSnapshotInfo(info))
	}

	output, err := FormatResponse(resp, OutputFormat(snapshotListFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runSnapshotShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	store := mustOpenStore(cfg, logger)
	defer store.Close()

	snap, err := store.GetSnapshot(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	info := SnapshotInfoCLI{
		ID:            snap.ID,
		CreatedAt:     snap.Timestamp.Format(time.RFC3339),
		TotalFiles:    snap.Metadata.TotalFiles,
		TotalElements: snap.Metadata.TotalElements,
		Languages:     snap.Metadata.Languages,
	}
	output, err := FormatResponse(&SnapshotListResponseCLI{Snapshots: []SnapshotInfoCLI{info}}, OutputFormat(snapshotShowFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runSnapshotExport(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	store := mustOpenStore(cfg, logger)
	defer store.Close()

	snap, err := store.GetSnapshot(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := os.Stdout
	if snapshotExportPath != "" {
		f, err := os.Create(snapshotExportPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", snapshotExportPath, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := snap.Encode(out, snapshotExportFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting snapshot: %v\n", err)
		os.Exit(1)
	}
}

func runSnapshotPrune(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	store := mustOpenStore(cfg, logger)
	defer store.Close()

	keep := snapshotKeep
	if keep <= 0 {
		keep = cfg.Storage.KeepSnapshots
	}

	removed, err := store.Prune(keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning snapshots: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %d snapshots, kept %d most recent\n", removed, keep)
}

func convertSnapshotInfo(info storage.SnapshotInfo) SnapshotInfoCLI {
	return SnapshotInfoCLI{
		ID:            info.ID,
		CreatedAt:     info.CreatedAt.Format(time.RFC3339),
		TotalFiles:    info.TotalFiles,
		TotalElements: info.TotalElements,
		Languages:     info.Languages,
	}
}
