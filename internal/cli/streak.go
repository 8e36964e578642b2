package cli

import (
	"fmt"
	"time"

	"github.com/claude/poseflow/internal/streak"
	"github.com/spf13/cobra"
)

type streakResult struct {
	Transition streak.Transition `json:"transition"`
	Before     streak.State      `json:"before"`
	After      streak.State      `json:"after"`
}

func newStreakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Advance a streak by one practice day",
		Long: `Compute the streak after practicing on --today.

Dates are YYYY-MM-DD. Omit --last for a user who has never practiced.`,
		Args: cobra.NoArgs,
		RunE: runStreak,
	}
	cmd.Flags().Int("current", 0, "Current streak")
	cmd.Flags().Int("max", 0, "Longest streak so far")
	cmd.Flags().String("last", "", "Last practice date")
	cmd.Flags().String("today", "", "Practice date (default: today in local time)")
	return cmd
}

func runStreak(cmd *cobra.Command, args []string) error {
	text, err := textOutput(cmd)
	if err != nil {
		return err
	}

	var st streak.State
	st.CurrentStreak, _ = cmd.Flags().GetInt("current")
	st.MaxStreak, _ = cmd.Flags().GetInt("max")
	if st.CurrentStreak < 0 || st.MaxStreak < 0 {
		return fmt.Errorf("streak counts must not be negative")
	}
	if st.CurrentStreak > st.MaxStreak {
		return fmt.Errorf("current streak %d exceeds max streak %d", st.CurrentStreak, st.MaxStreak)
	}

	if raw, _ := cmd.Flags().GetString("last"); raw != "" {
		last, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("parse --last: %w", err)
		}
		st.LastPracticeDate = &last
	}

	today := streak.DateOf(time.Now(), time.Local)
	if raw, _ := cmd.Flags().GetString("today"); raw != "" {
		if today, err = time.Parse(time.DateOnly, raw); err != nil {
			return fmt.Errorf("parse --today: %w", err)
		}
	}

	res := streakResult{
		Transition: streak.Classify(st, today),
		Before:     st,
		After:      streak.Advance(st, today),
	}

	out := cmd.OutOrStdout()
	if !text {
		return printJSON(out, res)
	}
	last := "never"
	if res.After.LastPracticeDate != nil {
		last = res.After.LastPracticeDate.Format(time.DateOnly)
	}
	fmt.Fprintf(out, "%s: current %d, max %d, last %s\n",
		res.Transition, res.After.CurrentStreak, res.After.MaxStreak, last)
	return nil
}
