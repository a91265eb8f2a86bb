package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdidvp/shelfready/internal/adapters/inbound/httpapi"
	"github.com/abdidvp/shelfready/internal/app"
)

func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve audits, fixes, rules, credits and streaming batches over HTTP until interrupted.",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			api := httpapi.NewServer(a.Services, a.Checklist, a.Ledger, rt.log)
			srv := &http.Server{
				Addr:              rt.cfg.Server.Listen,
				Handler:           api.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			rt.log.WithField("addr", srv.Addr).Info("listening")

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-cmd.Context().Done():
				rt.log.Info("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}),
	}

	cmd.Flags().String("listen", ":8080", "Address to listen on")
	_ = rt.v.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	return cmd
}
