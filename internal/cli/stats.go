package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"dashboard"},
	Short:   "Show streak, XP, badges, goals and the leaderboard",
	Args:    cobra.NoArgs,
	RunE:    runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	s, err := stats(ctx, d)
	if err != nil {
		return err
	}

	xp := int64(s.XP)
	fmt.Printf("Streak:  %d day(s) (longest %d)\n", s.Streak, s.LongestStreak)
	fmt.Printf("Level:   %d  %s\n", s.Level, progressBar(int(engagement.LevelProgressPct(xp))))
	fmt.Printf("XP:      %d (%d to next level)\n", s.XP, engagement.XPToNextLevel(xp))
	if s.GlobalRank > 0 {
		fmt.Printf("Global:  #%d\n", s.GlobalRank)
	}

	if len(s.Badges) > 0 {
		fmt.Println("\nBadges:")
		for _, b := range s.Badges {
			fmt.Printf("  %s\n", b)
		}
	}

	if len(s.Goals) > 0 {
		fmt.Println("\nGoals:")
		for _, g := range s.Goals {
			fmt.Printf("  %-20s %s\n", g.Goal, progressBar(g.Progress))
		}
	}

	if len(s.WeeklyTasks) > 0 {
		fmt.Printf("\nWeekly challenge (%d/%d done):\n", s.CompletedTasks, d.Engine.Rules().WeeklyThreshold)
		for _, t := range s.WeeklyTasks {
			mark := " "
			if t.Done {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, t.Name)
		}
	}

	fmt.Println("\nLeaderboard:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  RANK\tUSER\tXP")
	for _, e := range s.Ranking {
		user := e.User
		if e.IsYou {
			user += " (you)"
		}
		fmt.Fprintf(w, "  %d\t%s\t%d\n", e.Rank, user, e.XP)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%s\n", engagement.Motivation(d.Engine.Today()))
	return nil
}
