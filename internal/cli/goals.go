package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func init() {
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(progressCmd)
}

var goalsCmd = &cobra.Command{
	Use:   "goals [GOAL...]",
	Short: "Show or replace your learning goals",
	Long: `With no arguments, list the goal catalog and your active goals.
With arguments, replace the active goals. Progress of a goal you drop is
kept and restored if you pick it again.`,
	RunE: runGoals,
}

func runGoals(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if len(args) > 0 {
		if err := update(ctx, d, func(st *domain.EngagementState) error {
			return d.Engine.SetGoals(st, args)
		}); err != nil {
			return err
		}
	}

	s, err := stats(ctx, d)
	if err != nil {
		return err
	}
	active := make(map[string]bool)
	fmt.Println("Learning goals:")
	for _, g := range s.Goals {
		active[g.Goal] = true
		fmt.Printf("  %-20s %s\n", g.Goal, progressBar(g.Progress))
	}
	var others []string
	for _, g := range d.Engine.GoalCatalog() {
		if !active[g] {
			others = append(others, g)
		}
	}
	if len(others) > 0 {
		fmt.Printf("Also available: %s\n", strings.Join(others, ", "))
	}
	return nil
}

var progressCmd = &cobra.Command{
	Use:   "progress GOAL VALUE",
	Short: "Set progress (0-100) on an active goal",
	Args:  cobra.ExactArgs(2),
	RunE:  runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("progress must be a whole number: %w", err)
	}

	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	var res domain.GoalProgressResult
	if err := update(ctx, d, func(st *domain.EngagementState) error {
		var err error
		res, err = d.Engine.UpdateGoalProgress(st, args[0], value)
		return err
	}); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", args[0], progressBar(value))
	if res.XPAwarded > 0 {
		fmt.Printf("+%d XP\n", res.XPAwarded)
	}
	if res.Badge != nil {
		fmt.Printf("Badge unlocked: %s\n", *res.Badge)
	}
	return nil
}
