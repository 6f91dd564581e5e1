package main

import (
	"github.com/spf13/cobra"
)

var readByPath bool

var readCmd = &cobra.Command{
	Use:   "read <id-or-path>",
	Short: "Read a single knowledge entry by id or file path",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().BoolVar(&readByPath, "by-path", false, "treat the argument as a file path relative to base-dir")
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if readByPath {
		entry, err := s.ReadByPath(args[0])
		if err != nil {
			return err
		}
		return printJSON(entry)
	}

	entry, err := s.Read(args[0])
	if err != nil {
		return err
	}
	return printJSON(entry)
}
