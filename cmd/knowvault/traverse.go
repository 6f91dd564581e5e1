package main

import (
	"github.com/spf13/cobra"

	"knowvault/internal/knowledge"
)

var (
	traverseDirection string
	traverseDepth     int
	traverseTypes     []string
)

var traverseCmd = &cobra.Command{
	Use:   "traverse <start-id>",
	Short: "Walk the knowledge graph from a starting entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraverse,
}

func init() {
	traverseCmd.Flags().StringVar(&traverseDirection, "direction", "outgoing", "outgoing, incoming, or both")
	traverseCmd.Flags().IntVar(&traverseDepth, "depth", 1, "traversal depth, clamped to 2")
	traverseCmd.Flags().StringSliceVar(&traverseTypes, "types", nil, "restrict to these connection types")
}

func runTraverse(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	dir := knowledge.Direction(traverseDirection)
	switch dir {
	case knowledge.DirectionOutgoing, knowledge.DirectionIncoming, knowledge.DirectionBoth:
	default:
		return fail("invalid --direction %q, expected outgoing, incoming, or both", traverseDirection)
	}

	results, err := s.Traverse(args[0], dir, traverseDepth, traverseTypes)
	if err != nil {
		return err
	}
	return printJSON(struct {
		Results []knowledge.TraverseResult `json:"results"`
	}{Results: results})
}
