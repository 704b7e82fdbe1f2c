package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coderef/internal/errors"
	"coderef/internal/tag"
)

var (
	parseFormat   string
	parseExtract  bool
	parseValidate bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <tag>...",
	Short: "Parse reference tags",
	Long: `Parse one or more canonical reference tags and print their components.

With --extract, each argument is treated as a file whose contents are
scanned for embedded tags instead. With --validate, each argument is
checked and reported without printing components; the exit code is
non-zero if any tag is invalid.

Examples:
  coderef parse '@Fn/auth/login#authenticate:24'
  coderef parse '@Cl/models/user#User{deprecated=true}'
  coderef parse --validate '@Fn/auth/login#authenticate:24' '@Nope/x'
  coderef parse --extract docs/architecture.md`,
	Args: cobra.MinimumNArgs(1),
	Run:  runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "human", "Output format (json, human)")
	parseCmd.Flags().BoolVar(&parseExtract, "extract", false, "Extract tags from files instead of parsing arguments")
	parseCmd.Flags().BoolVar(&parseValidate, "validate", false, "Report validity per argument without printing components")
	rootCmd.AddCommand(parseCmd)
}

// ParseResponseCLI contains parsed references for CLI output
type ParseResponseCLI struct {
	References []ParsedReferenceCLI `json:"references"`
}

// ParsedReferenceCLI is one parsed reference
type ParsedReferenceCLI struct {
	Tag      string        `json:"tag"`
	Type     string        `json:"type"`
	KindName string        `json:"kindName"`
	Path     string        `json:"path"`
	Element  string        `json:"element,omitempty"`
	Line     int           `json:"line,omitempty"`
	Metadata []MetaPairCLI `json:"metadata,omitempty"`
	Identity string        `json:"identity"`
}

// MetaPairCLI is one metadata field in canonical text form
type MetaPairCLI struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func runParse(cmd *cobra.Command, args []string) {
	if parseValidate {
		runValidate(args)
		return
	}

	var refs []tag.Reference

	if parseExtract {
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
				os.Exit(1)
			}
			refs = append(refs, tag.ExtractAll(string(data))...)
		}
	} else {
		for _, text := range args {
			ref, err := tag.Parse(text)
			if err != nil {
				if offset := errors.OffsetOf(err); offset >= 0 {
					fmt.Fprintf(os.Stderr, "Error parsing %q at offset %d: %v\n", text, offset, err)
				} else {
					fmt.Fprintf(os.Stderr, "Error parsing %q: %v\n", text, err)
				}
				os.Exit(1)
			}
			refs = append(refs, ref)
		}
	}

	resp := &ParseResponseCLI{References: make([]ParsedReferenceCLI, 0, len(refs))}
	for _, ref := range refs {
		resp.References = append(resp.References, convertReference(ref))
	}

	output, err := FormatResponse(resp, OutputFormat(parseFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func runValidate(args []string) {
	failed := 0
	for _, text := range args {
		if _, err := tag.Parse(text); err != nil {
			failed++
			fmt.Printf("invalid  %s: %v\n", text, err)
			continue
		}
		fmt.Printf("valid    %s\n", text)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func convertReference(ref tag.Reference) ParsedReferenceCLI {
	meta := make([]MetaPairCLI, 0, len(ref.Metadata))
	for _, f := range ref.Metadata {
		meta = append(meta, MetaPairCLI{Key: f.Key, Value: f.Value.Format()})
	}
	return ParsedReferenceCLI{
		Tag:      tag.Generate(ref),
		Type:     string(ref.Type),
		KindName: ref.Type.KindName(),
		Path:     ref.Path,
		Element:  ref.Element,
		Line:     ref.Line,
		Metadata: meta,
		Identity: ref.IdentityKey(),
	}
}
