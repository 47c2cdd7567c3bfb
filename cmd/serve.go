package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/api"
	"github.com/cardiorisk/cardiorisk/internal/config"
	"github.com/cardiorisk/cardiorisk/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assessment HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, config.ModeServe, true)
		if err != nil {
			return err
		}
		defer env.Close()

		checker := monitoring.NewChecker(env.Store, env.Metrics, time.Minute)
		go checker.Run(ctx)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env, checker.Healthy),
			ReadHeaderTimeout: 10 * time.Second,
		}

		return runServer(ctx, srv, time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	},
}

func buildRouter(env *appEnv, storeHealthy func() bool) http.Handler {
	return api.NewRouter(api.Options{
		Service: env.Service,
		Auth: api.AuthConfig{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Audience: cfg.Auth.Audience,
		},
		CORSOrigins:  cfg.Server.CORSOrigins,
		Metrics:      env.Metrics.Handler(),
		StoreHealthy: storeHealthy,
	})
}

// runServer serves until ctx is cancelled, then drains in-flight requests for
// up to grace.
func runServer(ctx context.Context, srv *http.Server, grace time.Duration) error {
	if grace <= 0 {
		grace = 15 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	if err := <-errCh; err != nil {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
