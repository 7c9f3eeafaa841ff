package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tekfaso/urgelec/internal/stub"
)

// StubCmd returns the stub command: a local in-memory service desk for
// development and demos.
func StubCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stub",
		Short: "Run a local service-desk stub",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := stub.NewService(app.Logger)
			srv := &http.Server{
				Addr:    ":" + app.Config.StubPort,
				Handler: svc.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info().Str("port", app.Config.StubPort).Msg("stub started")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
			app.Logger.Info().Msg("stub stopped")
			return nil
		},
	}
}
