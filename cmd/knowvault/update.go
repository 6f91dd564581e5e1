package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	updateReason     string
	updateContentArg string
)

var updateCmd = &cobra.Command{
	Use:   "update <path>",
	Short: "Rewrite an entry's content",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateReason, "reason", "", "reason recorded in the commit message")
	updateCmd.Flags().StringVar(&updateContentArg, "content", "", "new content; reads stdin if omitted")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	content := updateContentArg
	if content == "" {
		data, err := readAllStdin()
		if err != nil {
			return err
		}
		content = strings.TrimRight(string(data), "\n")
	}

	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := s.Update(ctx, args[0], content, updateReason)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
