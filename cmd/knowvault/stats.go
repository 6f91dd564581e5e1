package main

import (
	"github.com/spf13/cobra"

	"knowvault/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts by type and decay candidates",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	entries, err := s.List("")
	if err != nil {
		return err
	}

	byType := map[string]int{}
	for _, e := range entries {
		byType[e.Type]++
	}

	candidates, err := s.DecayCandidates(store.DefaultDecayConfig())
	if err != nil {
		return err
	}

	return printJSON(struct {
		TotalEntries    int            `json:"totalEntries"`
		ByType          map[string]int `json:"byType"`
		DecayCandidates int            `json:"decayCandidates"`
	}{
		TotalEntries:    len(entries),
		ByType:          byType,
		DecayCandidates: len(candidates),
	})
}
