package main

import (
	"github.com/spf13/cobra"

	"knowvault/internal/version"
)

var commitMessage string

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Stage and commit any pending changes in the knowledge store's private repo",
	RunE:  runCommit,
}

func init() {
	commitCmd.Flags().StringVar(&commitMessage, "message", "manual commit", "commit message")
}

func runCommit(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	vcs, err := version.Open(ctx, cfg.Store.BaseDir)
	if err != nil {
		return err
	}
	if err := vcs.Stage(ctx, "."); err != nil {
		return err
	}
	if err := vcs.Commit(ctx, commitMessage); err != nil {
		return err
	}
	return printJSON(struct {
		Committed bool   `json:"committed"`
		Message   string `json:"message"`
	}{Committed: true, Message: commitMessage})
}
