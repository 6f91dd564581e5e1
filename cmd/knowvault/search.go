package main

import (
	"strings"

	"github.com/spf13/cobra"

	"knowvault/internal/knowledge"
)

var (
	searchTags        []string
	searchConnectedTo string
	searchLimit       int
	searchMinScore    float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge store with hybrid full-text + vector ranking",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchTags, "tags", nil, "filter to entries matching any of these tags")
	searchCmd.Flags().StringVar(&searchConnectedTo, "connected-to", "", "filter to entries directly connected to this id")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "max results (default: configured)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum fused score (default: configured)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	results, total, err := s.Search(ctx, query, knowledge.SearchOptions{
		Limit:       searchLimit,
		MinScore:    searchMinScore,
		Tags:        searchTags,
		ConnectedTo: searchConnectedTo,
	})
	if err != nil {
		return err
	}

	return printJSON(struct {
		Results    []knowledge.SearchResult `json:"results"`
		TotalFound int                      `json:"totalFound"`
	}{Results: results, TotalFound: total})
}
