package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abdidvp/shelfready/internal/app"
	"github.com/abdidvp/shelfready/internal/config"
	"github.com/abdidvp/shelfready/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

// runtime is the state shared by every command of one invocation.
type runtime struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	rt := &runtime{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "shelfready",
		Short: "Audit and fix product listings before they go live",
		Long: "shelfready scores catalog listings against a weighted checklist and fixes what fails: " +
			"automatically, with generated content, or by flagging it for a person.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.init,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&rt.cfgFile, "config", "", "config file (default: $HOME/.config/shelfready/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("shop", "default", "shop ID")
	flags.String("db", "", "SQLite database path")
	_ = rt.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = rt.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = rt.v.BindPFlag("shop.id", flags.Lookup("shop"))
	_ = rt.v.BindPFlag("database.path", flags.Lookup("db"))

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newAuditCmd(rt))
	cmd.AddCommand(newFixCmd(rt))
	cmd.AddCommand(newRevertCmd(rt))
	cmd.AddCommand(newHistoryCmd(rt))
	cmd.AddCommand(newBatchCmd(rt))
	cmd.AddCommand(newRulesCmd(rt))
	cmd.AddCommand(newCreditsCmd(rt))
	cmd.AddCommand(newServeCmd(rt))
	cmd.AddCommand(newMCPCmd(rt))
	return cmd
}

func (rt *runtime) init(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rt.v, rt.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	rt.cfg, rt.log = cfg, log
	return nil
}

// withApp builds the application for the duration of one command. Commands
// that never touch the store do not create a database.
func (rt *runtime) withApp(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), rt.cfg, rt.log)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
