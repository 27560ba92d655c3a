// Package cli implements the PathPilot command-line interface using Cobra.
// Every command except serve acts on one persistent local session.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathpilot",
	Short: "PathPilot — Your Career. Your Map. Your Journey.",
	Long: `PathPilot is a gamified career guidance companion.
Check in daily to build a streak, track learning goals, complete the weekly
challenge, ask career questions and get feedback on your resume.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", defaultSession, "Session to act on")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
