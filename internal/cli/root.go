// Package cli implements the poseflow command-line tool. It runs the catalog,
// recommendation engine and streak state machine locally without a server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the top-level command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "poseflow",
		Short:         "Yoga practice recommendations and streaks",
		Long:          "Browse the pose catalog, get pose recommendations and compute practice streaks offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("catalog", "c", "", "Pose catalog YAML (default: $POSEFLOW_CATALOG_PATH or built-in)")
	root.PersistentFlags().StringP("format", "f", "json", "Output format: json or text")

	root.AddCommand(newCatalogCmd(), newRecommendCmd(), newStreakCmd())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		exitErr(err)
	}
}

func loadCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		path = os.Getenv("POSEFLOW_CATALOG_PATH")
	}
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

func textOutput(cmd *cobra.Command) (bool, error) {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return false, nil
	case "text":
		return true, nil
	default:
		return false, fmt.Errorf("unknown format %q (want json or text)", format)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
