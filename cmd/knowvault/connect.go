package main

import (
	"github.com/spf13/cobra"
)

var connectNote string

var connectCmd = &cobra.Command{
	Use:   "connect <source-id> <type> <target-id>",
	Short: "Create a typed connection between two entries",
	Args:  cobra.ExactArgs(3),
	RunE:  runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectNote, "note", "", "optional note attached to the connection")
}

func runConnect(cmd *cobra.Command, args []string) error {
	sourceID, connType, targetID := args[0], args[1], args[2]

	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := s.Connect(ctx, sourceID, targetID, connType, connectNote); err != nil {
		return err
	}
	return printJSON(struct {
		Source string `json:"source"`
		Type   string `json:"type"`
		Target string `json:"target"`
	}{Source: sourceID, Type: connType, Target: targetID})
}
