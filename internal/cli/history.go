package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/infra/transcript"
)

var (
	historyExport string
	historyClear  bool
)

func init() {
	historyCmd.Flags().StringVar(&historyExport, "export", "", "Write the full chat transcript to an .xlsx file")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Clear the visible chat history")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(feedbackCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show, clear or export the chat history",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if historyExport != "" {
		recs, err := d.Advisor.Transcript(ctx, sessionID)
		if err != nil {
			return err
		}
		f, err := os.Create(historyExport)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		if err := transcript.WriteXLSX(f, recs); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Exported %d message(s) to %s\n", len(recs), historyExport)
		return nil
	}

	if historyClear {
		if err := d.Advisor.Clear(ctx, sessionID); err != nil {
			return err
		}
		fmt.Println("Chat history cleared.")
		return nil
	}

	recs, err := d.Advisor.History(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No messages yet. Run 'pathpilot ask' to start.")
		return nil
	}
	for _, r := range recs {
		fmt.Printf("[%s] %s\n", shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Printf("You: %s\n", r.User)
		fmt.Printf("Bot: %s\n", r.Bot)
		if r.Feedback != "" {
			fmt.Printf("Feedback: %s\n", r.Feedback)
		}
		fmt.Println()
	}
	return nil
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback RECORD_ID EMOJI",
	Short: "Rate an answer (😀 😊 😐 😕 😡)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		d, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer d.Close()

		id, err := resolveRecordID(ctx, d, args[0])
		if err != nil {
			return err
		}
		if err := d.Advisor.Feedback(ctx, sessionID, id, args[1]); err != nil {
			return err
		}
		fmt.Println("Thanks for the feedback!")
		return nil
	},
}
