package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/brewerp/pkg/interfaces/http/api"
)

// sessionPurgeInterval is how often expired sessions are deleted while serving
const sessionPurgeInterval = time.Hour

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the brewerp JSON API under /api/v1.

Besides the HTTP server, serve periodically rescans every company for low
stock (alerts.scan_interval) and purges expired sessions. SIGINT or SIGTERM
shuts the server down gracefully.

Example:
  brewerp serve --config brewerp.yaml
  BREWERP_HTTP_ADDR=:9090 brewerp serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, addr string) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	if addr == "" {
		addr = e.cfg.HTTP.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(e.app, e.logger).Handler(),
		ReadTimeout:       e.cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: e.cfg.HTTP.ReadTimeout,
		WriteTimeout:      e.cfg.HTTP.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		e.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), e.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if interval := e.cfg.Alerts.ScanInterval; interval > 0 {
		g.Go(func() error {
			return every(ctx, interval, func() {
				res, err := e.app.Alerts.ScanAll(ctx)
				if err != nil {
					e.logger.Warn("alert scan failed", zap.Error(err))
					return
				}
				e.logger.Info("alert scan",
					zap.Int("evaluated", res.Evaluated),
					zap.Int("raised", res.Raised),
					zap.Int("resolved", res.Resolved))
			})
		})
	}

	g.Go(func() error {
		return every(ctx, sessionPurgeInterval, func() {
			n, err := e.app.Auth.PurgeExpiredSessions(ctx)
			if err != nil {
				e.logger.Warn("session purge failed", zap.Error(err))
				return
			}
			e.logger.Debug("purged expired sessions", zap.Int64("count", n))
		})
	})

	return g.Wait()
}

// every calls fn on each tick until ctx is done
func every(ctx context.Context, interval time.Duration, fn func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}
