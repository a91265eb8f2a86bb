package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/tui"
	"github.com/abdidvp/shelfready/internal/app"
	"github.com/abdidvp/shelfready/internal/domain"
)

func newAuditCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "audit <listing-id>",
		Short: "Score a listing against the shop's checklist",
		Long:  "Fetch the listing, evaluate every enabled rule, store the result and print the score with each failing rule.",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			res, err := a.Services.Audits.AuditListing(cmd.Context(), rt.cfg.Shop.ID, args[0])
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderAudit(res))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newFixCmd(rt *runtime) *cobra.Command {
	var (
		auto       bool
		image      bool
		set        map[string]string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "fix <listing-id> [rule]",
		Short: "Fix a failing rule on a listing",
		Long: "Apply the fix registered for a rule. Automatic fixes write derived values, AI fixes generate content " +
			"and spend one credit on success, and manual rules are only reported. " +
			"With --auto every failing automatic fix is applied in turn.",
		Example: "  shelfready fix 8123 has_vendor --set vendor=Loom\n  shelfready fix --auto 8123",
		Args:    cobra.RangeArgs(1, 2),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx, shopID, id := cmd.Context(), rt.cfg.Shop.ID, args[0]
			cfg := domain.FixConfig(set)

			var (
				outcomes []domain.FixOutcome
				final    *domain.AuditResult
			)
			switch {
			case auto:
				var err error
				outcomes, final, err = a.Services.Fixes.ApplyAutoFixes(ctx, shopID, id, cfg)
				if err != nil {
					return fmt.Errorf("fix failed: %w", err)
				}
			case image:
				out, err := a.Services.Fixes.GenerateImage(ctx, shopID, id, cfg)
				if err != nil {
					return fmt.Errorf("fix failed: %w", err)
				}
				outcomes = []domain.FixOutcome{out}
			case len(args) == 2:
				out, err := a.Services.Fixes.ApplyFix(ctx, shopID, id, domain.RuleKey(args[1]), cfg)
				if err != nil {
					return fmt.Errorf("fix failed: %w", err)
				}
				outcomes = []domain.FixOutcome{out}
			default:
				return fmt.Errorf("name a rule to fix, or pass --auto or --image")
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"outcomes": outcomes, "audit": final})
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFixOutcomes(outcomes, final))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&auto, "auto", false, "Apply every failing automatic fix")
	cmd.Flags().BoolVar(&image, "image", false, "Generate a product image when the listing has too few")
	cmd.Flags().StringToStringVar(&set, "set", nil, "Fix parameters as key=value (e.g. vendor=Loom,tone=friendly)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("auto", "image")
	return cmd
}

func newRevertCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "revert <entry-id>",
		Short: "Restore the previous value recorded in a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			out, err := a.Services.Fixes.RevertChange(cmd.Context(), rt.cfg.Shop.ID, args[0])
			if err != nil {
				return fmt.Errorf("revert failed: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderFixOutcomes([]domain.FixOutcome{out}, nil))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history <listing-id>",
		Short: "List the recorded field changes for a listing",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			entries, err := a.Services.Fixes.History(cmd.Context(), rt.cfg.Shop.ID, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []domain.VersionEntry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
