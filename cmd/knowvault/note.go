package main

import (
	"strings"

	"github.com/spf13/cobra"

	"knowvault/internal/knowledge"
)

var (
	noteTitle       string
	noteType        string
	noteTags        []string
	noteConnections []string
)

var noteCmd = &cobra.Command{
	Use:   "note <content>",
	Short: "Create a new knowledge entry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNote,
}

func init() {
	noteCmd.Flags().StringVar(&noteTitle, "title", "", "entry title (required)")
	noteCmd.Flags().StringVar(&noteType, "type", "note", "entry type: decision, entity, note, incident, session, pattern, workflow")
	noteCmd.Flags().StringSliceVar(&noteTags, "tags", nil, "comma-separated tags")
	noteCmd.Flags().StringArrayVar(&noteConnections, "connect", nil, "target:type[:note], repeatable")
	noteCmd.MarkFlagRequired("title")
}

func runNote(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")

	conns, err := parseConnectionFlags(noteConnections)
	if err != nil {
		return err
	}

	ctx, cancel := commandTimeout()
	defer cancel()

	s, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := s.Create(ctx, knowledge.CreateInput{
		Title:       noteTitle,
		Type:        noteType,
		Content:     content,
		Tags:        noteTags,
		Connections: conns,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

// parseConnectionFlags turns "target:type[:note]" strings into
// ConnectionInput values.
func parseConnectionFlags(raw []string) ([]knowledge.ConnectionInput, error) {
	var out []knowledge.ConnectionInput
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		if len(parts) < 2 {
			return nil, fail("invalid --connect value %q, expected target:type[:note]", r)
		}
		c := knowledge.ConnectionInput{Target: parts[0], Type: parts[1]}
		if len(parts) == 3 {
			c.Note = parts[2]
		}
		out = append(out, c)
	}
	return out, nil
}
