package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

var resourcesCmd = &cobra.Command{
	Use:   "resources [TOPIC]",
	Short: "Show career tip sheets",
	RunE:  runResources,
}

func runResources(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	shown := 0
	for _, r := range domain.CareerResources() {
		if topic != "" && !strings.Contains(strings.ToLower(r.Topic), strings.ToLower(topic)) {
			continue
		}
		if shown > 0 {
			fmt.Println()
		}
		fmt.Printf("%s %s\n", r.Icon, r.Topic)
		for _, tip := range r.Tips {
			fmt.Printf("  - %s\n", tip)
		}
		shown++
	}
	if shown == 0 {
		return fmt.Errorf("no resources about %q", topic)
	}
	return nil
}
