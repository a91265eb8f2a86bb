package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/tui"
	"github.com/abdidvp/shelfready/internal/app"
	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/domain"
)

// listingLister is implemented by catalogs that can enumerate listings.
type listingLister interface {
	List(ctx context.Context) ([]domain.ListingSnapshot, error)
}

func newBatchCmd(rt *runtime) *cobra.Command {
	var (
		operation  string
		strategy   string
		all        bool
		set        map[string]string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "batch [listing-id...]",
		Short: "Run an operation across many listings",
		Long: "Apply an operation to each selected listing with per-item isolation. Operations: audit, " +
			"fix:<rule>, fix-auto, generate-image. Progress is shown while items complete; interrupting " +
			"stops before the next item and reports what was done.",
		Example: "  shelfready batch --op fix-auto 8123 8124 8125\n  shelfready batch --op audit --all",
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			ids := args
			if all {
				lister, ok := a.Catalog.(listingLister)
				if !ok {
					return fmt.Errorf("--all needs a catalog that can list listings (catalog.kind: file)")
				}
				listings, err := lister.List(cmd.Context())
				if err != nil {
					return err
				}
				ids = make([]string, 0, len(listings))
				for _, l := range listings {
					ids = append(ids, l.ID)
				}
			}

			events, err := a.Services.Batches.Run(cmd.Context(), application.BatchRequest{
				ShopID:     rt.cfg.Shop.ID,
				ListingIDs: ids,
				Operation:  operation,
				FixConfig:  domain.FixConfig(set),
				Strategy:   domain.Strategy(strategy),
			})
			if err != nil {
				return err
			}

			summary := drainWithProgress(cmd, events, !jsonOutput)
			if summary == nil {
				return fmt.Errorf("batch ended without a summary")
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderBatchSummary(summary))
			return nil
		}),
	}

	cmd.Flags().StringVar(&operation, "op", "audit", "Operation: audit, fix:<rule>, fix-auto, generate-image")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Pacing: concurrent or sequential (default depends on the operation)")
	cmd.Flags().BoolVar(&all, "all", false, "Select every listing in the catalog")
	cmd.Flags().StringToStringVar(&set, "set", nil, "Fix parameters as key=value")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the summary as JSON")
	return cmd
}

// drainWithProgress reads events until the channel closes and returns the
// final summary. The bar is drawn on stderr so stdout stays clean.
func drainWithProgress(cmd *cobra.Command, events <-chan domain.ProgressEvent, showBar bool) *domain.BatchSummary {
	var (
		bar     *progressbar.ProgressBar
		summary *domain.BatchSummary
	)
	for ev := range events {
		switch ev.Type {
		case domain.EventStart:
			if showBar {
				bar = progressbar.NewOptions(ev.Total,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionEnableColorCodes(true),
					progressbar.OptionShowCount(),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("[cyan][bold]Processing listings...[reset]"),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "[green]=[reset]",
						SaucerHead:    "[green]>[reset]",
						SaucerPadding: " ",
						BarStart:      "[",
						BarEnd:        "]",
					}),
					progressbar.OptionOnCompletion(func() {
						fmt.Fprintln(cmd.ErrOrStderr())
					}),
				)
			}
		case domain.EventProgress:
			if bar != nil {
				_ = bar.Add(1)
			}
		case domain.EventComplete:
			summary = ev.Summary
		}
	}
	return summary
}
