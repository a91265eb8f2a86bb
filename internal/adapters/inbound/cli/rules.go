package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/tui"
	"github.com/abdidvp/shelfready/internal/app"
	"github.com/abdidvp/shelfready/internal/domain"
)

func newRulesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the shop's checklist",
		Long:  "List, enable, disable and reweight the shop's rule definitions, or seed them from the checklist template.",
	}
	cmd.AddCommand(newRulesListCmd(rt))
	cmd.AddCommand(newRulesToggleCmd(rt, "enable", "Enable a rule for the shop", true))
	cmd.AddCommand(newRulesToggleCmd(rt, "disable", "Disable a rule; it is skipped in audits", false))
	cmd.AddCommand(newRulesWeightCmd(rt))
	cmd.AddCommand(newRulesSeedCmd(rt))
	return cmd
}

func newRulesListCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rule definitions in evaluation order",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			defs, err := a.Services.Rules.ListRules(cmd.Context(), rt.cfg.Shop.ID)
			if err != nil {
				return err
			}
			if jsonOutput {
				if defs == nil {
					defs = []domain.RuleDefinition{}
				}
				return writeJSON(cmd.OutOrStdout(), defs)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRules(defs))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRulesToggleCmd(rt *runtime, use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.Services.Rules.SetEnabled(cmd.Context(), rt.cfg.Shop.ID, domain.RuleKey(args[0]), enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", args[0], use)
			return nil
		}),
	}
}

func newRulesWeightCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "weight <rule> <weight>",
		Short: "Set a rule's weight (at least 1)",
		Args:  cobra.ExactArgs(2),
		RunE: rt.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			weight, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("weight must be a whole number, got %q", args[1])
			}
			if err := a.Services.Rules.SetWeight(cmd.Context(), rt.cfg.Shop.ID, domain.RuleKey(args[0]), weight); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s weight set to %d\n", args[0], weight)
			return nil
		}),
	}
}

func newRulesSeedCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create missing rule definitions from the checklist template",
		Long:  "Seed the shop from .shelfready.yaml (or the built-in checklist). Existing definitions are left untouched.",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			n, err := a.Services.Rules.Seed(cmd.Context(), rt.cfg.Shop.ID, a.Checklist)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rule definitions created\n", n)
			return nil
		}),
	}
}
