package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"coderef/internal/element"
	"coderef/internal/query"
	"coderef/internal/tag"
)

var (
	queryFormat        string
	queryTypes         []string
	queryPath          string
	queryMeta          []string
	queryLimit         int
	queryRelationships bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query indexed elements",
	Long: `Query the latest snapshot's element index. Filters combine with AND
semantics; results keep scan order.

Examples:
  coderef query --type Fn --path 'auth/*'
  coderef query --meta deprecated=true --limit 20
  coderef query --type Cl --type If --relationships`,
	Run: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFormat, "format", "human", "Output format (json, human)")
	queryCmd.Flags().StringSliceVar(&queryTypes, "type", nil, "Filter by type designator (repeatable)")
	queryCmd.Flags().StringVar(&queryPath, "path", "", "Filter by path glob pattern")
	queryCmd.Flags().StringSliceVar(&queryMeta, "meta", nil, "Filter by metadata key=value (repeatable)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 50, "Maximum results to return")
	queryCmd.Flags().BoolVar(&queryRelationships, "relationships", false, "Annotate results with relationship presence")
	rootCmd.AddCommand(queryCmd)
}

// QueryResponseCLI contains query results for CLI output
type QueryResponseCLI struct {
	TotalCount int              `json:"totalCount"`
	Elements   []QueryResultCLI `json:"elements"`
}

// QueryResultCLI is one matched element
type QueryResultCLI struct {
	Tag              string `json:"tag"`
	Type             string `json:"type"`
	Path             string `json:"path"`
	Name             string `json:"name,omitempty"`
	Line             int    `json:"line,omitempty"`
	Language         string `json:"language,omitempty"`
	HasRelationships *bool  `json:"hasRelationships,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) {
	start := time.Now()
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

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

	filter, err := buildFilter()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := engine.Find(query.Request{
		Filter:               filter,
		IncludeRelationships: queryRelationships,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running query: %v\n", err)
		os.Exit(1)
	}

	resp := &QueryResponseCLI{TotalCount: result.TotalCount}
	for _, el := range result.Elements {
		resp.Elements = append(resp.Elements, QueryResultCLI{
			Tag:              el.Tag,
			Type:             string(el.Type),
			Path:             el.Path,
			Name:             el.Name,
			Line:             el.Line,
			Language:         el.Language,
			HasRelationships: el.HasRelationships,
		})
	}

	output, err := FormatResponse(resp, OutputFormat(queryFormat))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)

	logger.Debug("Query completed", map[string]interface{}{
		"total":    result.TotalCount,
		"returned": len(result.Elements),
		"duration": time.Since(start).Milliseconds(),
	})
}

func buildFilter() (element.Filter, error) {
	filter := element.Filter{
		PathPattern: queryPath,
		Limit:       queryLimit,
	}

	for _, t := range queryTypes {
		typ := tag.Type(t)
		if !typ.IsKnown() {
			return element.Filter{}, fmt.Errorf("unknown type designator %q", t)
		}
		filter.Types = append(filter.Types, typ)
	}

	if len(queryMeta) > 0 {
		filter.Metadata = make(map[string]tag.MetaValue, len(queryMeta))
		for _, pair := range queryMeta {
			key, raw, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return element.Filter{}, fmt.Errorf("metadata filter %q must be key=value", pair)
			}
			filter.Metadata[key] = inferMetaValue(raw)
		}
	}

	return filter, nil
}

// inferMetaValue applies the same value inference as tag parsing:
// true/false are booleans, integers are numbers, everything else a string
func inferMetaValue(raw string) tag.MetaValue {
	switch raw {
	case "true":
		return tag.BoolValue(true)
	case "false":
		return tag.BoolValue(false)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return tag.NumberValue(float64(n))
	}
	return tag.StringValue(raw)
}
