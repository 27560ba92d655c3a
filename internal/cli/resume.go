package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resumeCmd)
}

var resumeCmd = &cobra.Command{
	Use:   "resume FILE",
	Short: "Get feedback on a resume (PDF, DOCX or plain text)",
	Args:  cobra.ExactArgs(1),
	RunE:  runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}

	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Fprintf(os.Stderr, "analyzing %s...\n", filepath.Base(path))
	report, err := d.Resume.Analyze(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
	if err != nil {
		return err
	}

	fmt.Println(report.Analysis)
	if len(report.Roles) > 0 {
		fmt.Printf("\nSuggested roles: %s\n", strings.Join(report.Roles, ", "))
	}
	if report.ArchiveKey != "" {
		fmt.Fprintf(os.Stderr, "archived as %s\n", report.ArchiveKey)
	}
	return nil
}
