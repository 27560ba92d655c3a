package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskDoneCmd, taskUndoCmd, taskRmCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(weeklyCmd)
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage weekly challenge tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add a task to the weekly challenge",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return taskAction(cmd, func(e engine, st *domain.EngagementState) error {
			return e.AddWeeklyTask(st, name)
		}, "Added %q\n", name)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done NAME...",
	Short: "Mark a task done",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return taskAction(cmd, func(e engine, st *domain.EngagementState) error {
			return e.SetTaskDone(st, name, true)
		}, "Done: %s\n", name)
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo NAME...",
	Short: "Mark a task not done",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return taskAction(cmd, func(e engine, st *domain.EngagementState) error {
			return e.SetTaskDone(st, name, false)
		}, "Reopened: %s\n", name)
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm NAME...",
	Aliases: []string{"remove"},
	Short:   "Remove a task",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return taskAction(cmd, func(e engine, st *domain.EngagementState) error {
			e.RemoveWeeklyTask(st, name)
			return nil
		}, "Removed %q\n", name)
	},
}

// engine is the subset of the engagement engine task commands use.
type engine interface {
	AddWeeklyTask(st *domain.EngagementState, name string) error
	RemoveWeeklyTask(st *domain.EngagementState, name string)
	SetTaskDone(st *domain.EngagementState, name string, done bool) error
}

func taskAction(cmd *cobra.Command, fn func(engine, *domain.EngagementState) error, format, name string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := update(ctx, d, func(st *domain.EngagementState) error {
		return fn(d.Engine, st)
	}); err != nil {
		return err
	}
	fmt.Printf(format, name)
	return nil
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Evaluate the weekly challenge",
	Args:  cobra.NoArgs,
	RunE:  runWeekly,
}

func runWeekly(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	var res domain.WeeklyResult
	if err := update(ctx, d, func(st *domain.EngagementState) error {
		res = d.Engine.EvaluateWeeklyChallenge(st)
		return nil
	}); err != nil {
		return err
	}

	need := d.Engine.Rules().WeeklyThreshold
	fmt.Printf("Completed %d of %d tasks.\n", res.CompletedCount, need)
	switch {
	case res.RewardGranted:
		fmt.Printf("Weekly challenge complete! +%d XP\n", res.XPAwarded)
	case res.CompletedCount >= need:
		fmt.Println("Weekly challenge complete. Reward already collected this week.")
	default:
		fmt.Printf("Finish %d more to complete the challenge.\n", need-res.CompletedCount)
	}
	if res.Badge != nil {
		fmt.Printf("Badge unlocked: %s\n", *res.Badge)
	}
	return nil
}
