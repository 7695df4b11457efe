package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gatehouse/internal/config"
	gatehttp "gatehouse/internal/platform/http"
	gateserver "gatehouse/internal/platform/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(logOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, logOut)
			slog.SetDefault(logger)

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			srv, err := gateserver.NewServer(cfg, db, logger)
			if err != nil {
				return err
			}
			handler, err := gatehttp.Routes(srv)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return listen(ctx, logger, &http.Server{
				Addr:              cfg.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
}

// listen serves until ctx is done, then drains in-flight requests.
func listen(ctx context.Context, logger *slog.Logger, httpServer *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
