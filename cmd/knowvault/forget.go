package main

import (
	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a knowledge entry and its file",
	Args:  cobra.ExactArgs(1),
	RunE:  runForget,
}

func runForget(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.Delete(ctx, args[0]); err != nil {
		return err
	}
	return printJSON(struct {
		Deleted string `json:"deleted"`
	}{Deleted: args[0]})
}
