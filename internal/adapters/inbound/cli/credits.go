package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/tui"
	"github.com/abdidvp/shelfready/internal/app"
)

func newCreditsCmd(rt *runtime) *cobra.Command {
	var (
		ownKey     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Show the shop's AI credit allowance",
		Long:  "Show whether AI fixes may run and how many credits remain this month. --own-key marks the shop as using its own generation key, which is not metered.",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			shopID := rt.cfg.Shop.ID
			if cmd.Flags().Changed("own-key") {
				if err := a.Ledger.SetOwnKey(cmd.Context(), shopID, ownKey); err != nil {
					return err
				}
			}
			decision, err := a.Services.Fixes.Credits(cmd.Context(), shopID)
			if err != nil {
				return fmt.Errorf("credit check failed: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), decision)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderCredits(decision))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&ownKey, "own-key", false, "Record whether the shop uses its own generation key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
