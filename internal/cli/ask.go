package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/daemon"
	"github.com/futurenavigators/pathpilot/internal/domain"
)

var askTop int

func init() {
	askCmd.Flags().IntVar(&askTop, "top", 0, "Show the N closest corpus questions instead of answering")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask [QUESTION...]",
	Short: "Ask a career question",
	Long: `Ask a career question. The closest question in the guidance corpus is
found and its answer is rephrased by the generative-text service. Without a
question an interactive chat starts; type /bye to exit.`,
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	question := strings.Join(args, " ")
	if askTop > 0 {
		if question == "" {
			return domain.ErrEmptyQuestion
		}
		return printTopMatches(d, question, askTop)
	}
	if question != "" {
		return answer(ctx, d, question)
	}

	fmt.Println("Ask me anything about your career. Type /bye to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/bye" || input == "/exit" {
			break
		}
		if err := answer(ctx, d, input); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		fmt.Println()
	}
	return scanner.Err()
}

func answer(ctx context.Context, d *daemon.Daemon, question string) error {
	rec, err := d.Advisor.Ask(ctx, sessionID, question)
	if errors.Is(err, domain.ErrNoConfidentMatch) {
		fmt.Println("I couldn't find a confident answer to that. Try rephrasing your question.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(rec.Bot)
	if rec.Degraded {
		fmt.Fprintln(os.Stderr, "(answer shown as-is; the rephrasing service is unavailable)")
	}
	return nil
}

func printTopMatches(d *daemon.Daemon, question string, k int) error {
	matches := d.Index.TopMatches(question, k)
	if len(matches) == 0 {
		fmt.Println("No similar questions found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tQUESTION")
	for _, m := range matches {
		fmt.Fprintf(w, "%.3f\t%s\n", m.Score, m.Question)
	}
	return w.Flush()
}
