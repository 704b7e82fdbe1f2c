package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var scannersLanguage string

var scannersCmd = &cobra.Command{
	Use:   "scanners",
	Short: "List configured scanners",
	Long: `List the external scanners declared in .coderef/scanners.toml.

Examples:
  coderef scanners
  coderef scanners --language typescript`,
	Run: runScanners,
}

func init() {
	scannersCmd.Flags().StringVar(&scannersLanguage, "language", "", "Only scanners covering this language")
	rootCmd.AddCommand(scannersCmd)
}

func runScanners(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	manifest, err := loadManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	names := manifest.Names()
	if scannersLanguage != "" {
		names = manifest.ForLanguage(scannersLanguage)
	}

	if len(names) == 0 {
		fmt.Println("No scanners configured")
		return
	}

	for _, name := range names {
		sc := manifest.Scanners[name]
		fmt.Printf("%s\n", name)
		fmt.Printf("  Command: %s", sc.Command)
		if len(sc.Args) > 0 {
			fmt.Printf(" %s", strings.Join(sc.Args, " "))
		}
		fmt.Println()
		if len(sc.Languages) > 0 {
			fmt.Printf("  Languages: %s\n", strings.Join(sc.Languages, ", "))
		}
		if sc.Output != "" {
			fmt.Printf("  Output: %s\n", sc.Output)
		}
	}

	logger.Debug("Listed scanners", map[string]interface{}{
		"count": len(names),
	})
}
