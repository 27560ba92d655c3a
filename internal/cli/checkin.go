package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func init() {
	rootCmd.AddCommand(checkinCmd)
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Check in for today and extend your streak",
	Args:  cobra.NoArgs,
	RunE:  runCheckIn,
}

func runCheckIn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	var res domain.CheckInResult
	err = update(ctx, d, func(st *domain.EngagementState) error {
		var err error
		res, err = d.Engine.CheckIn(st, d.Engine.Today())
		return err
	})
	if errors.Is(err, domain.ErrAlreadyCheckedInToday) {
		fmt.Println("You've already checked in today. Come back tomorrow!")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Checked in! +%d XP. Current streak: %d day(s).\n", res.XPDelta, res.Streak)
	for _, b := range res.BadgesAwarded {
		fmt.Printf("Badge unlocked: %s\n", b)
	}
	return nil
}
