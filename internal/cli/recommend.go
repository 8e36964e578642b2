package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/spf13/cobra"
)

func newRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend up to three poses",
		Long: `Recommend up to three poses for a level and recent history.

Sessions are given most recent first as Pose:accuracy, e.g.
  poseflow recommend --level INTERMEDIATE --session Tree:62 --session Cobra:88`,
		Args: cobra.NoArgs,
		RunE: runRecommend,
	}
	cmd.Flags().StringP("level", "l", "", "Experience level (default BEGINNER)")
	cmd.Flags().StringArrayP("session", "s", nil, "Recent session as Pose:accuracy, most recent first (repeatable)")
	cmd.Flags().Uint64("seed", 0, "Random seed for reproducible output (0 = clock)")
	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	text, err := textOutput(cmd)
	if err != nil {
		return err
	}

	level := catalog.Beginner
	if raw, _ := cmd.Flags().GetString("level"); raw != "" {
		if level, err = catalog.ParseDifficulty(raw); err != nil {
			return err
		}
	}

	raw, _ := cmd.Flags().GetStringArray("session")
	sessions, err := parseSessions(raw)
	if err != nil {
		return err
	}
	if len(sessions) > recommend.HistoryLimit {
		sessions = sessions[:recommend.HistoryLimit]
	}

	seed, _ := cmd.Flags().GetUint64("seed")
	recs := recommend.NewEngine(cat, seed).Recommend(level, sessions)

	out := cmd.OutOrStdout()
	if !text {
		return printJSON(out, recs)
	}
	for i, r := range recs {
		fmt.Fprintf(out, "%d. %s (%s) - %s\n", i+1, r.PoseName, r.Difficulty, r.Message)
	}
	return nil
}

// parseSessions reads Pose:accuracy pairs. The pose name may itself contain
// colons; the accuracy is everything after the last one.
func parseSessions(raw []string) ([]recommend.Session, error) {
	sessions := make([]recommend.Session, 0, len(raw))
	for _, s := range raw {
		i := strings.LastIndex(s, ":")
		if i <= 0 {
			return nil, fmt.Errorf("session %q: want Pose:accuracy", s)
		}
		name := strings.TrimSpace(s[:i])
		acc, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("session %q: bad accuracy: %w", s, err)
		}
		if acc < 0 || acc > 100 {
			return nil, fmt.Errorf("session %q: accuracy must be between 0 and 100", s)
		}
		sessions = append(sessions, recommend.Session{PoseName: name, AverageAccuracy: acc})
	}
	return sessions, nil
}
