package cli

import (
	"fmt"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List catalog poses",
		Args:  cobra.NoArgs,
		RunE:  runCatalog,
	}
	cmd.Flags().StringP("difficulty", "d", "", "Only list poses of this tier (BEGINNER, INTERMEDIATE, ADVANCED)")
	return cmd
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	text, err := textOutput(cmd)
	if err != nil {
		return err
	}

	entries := cat.Entries()
	if raw, _ := cmd.Flags().GetString("difficulty"); raw != "" {
		d, err := catalog.ParseDifficulty(raw)
		if err != nil {
			return err
		}
		entries = entries[:0:0]
		for _, name := range cat.PosesByDifficulty(d) {
			entries = append(entries, catalog.Entry{Name: name, Difficulty: d})
		}
	}

	out := cmd.OutOrStdout()
	if !text {
		return printJSON(out, entries)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%-14s %s\n", e.Difficulty, e.Name)
	}
	return nil
}
