package main

import (
	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Repopulate the SQLite index by rescanning every Markdown file",
	RunE:  runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := s.Rebuild(ctx)
	if err != nil {
		return err
	}
	return printJSON(struct {
		EntriesIndexed int `json:"entriesIndexed"`
	}{EntriesIndexed: n})
}
