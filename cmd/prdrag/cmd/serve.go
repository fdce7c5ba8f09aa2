package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/prdrag/internal/transport/chi"
	"github.com/kailas-cloud/prdrag/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

// servePort overrides http.port when non-zero
var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (defaults to http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		cfg := a.cfg
		port := cfg.HTTP.Port
		if servePort > 0 {
			port = servePort
		}

		a.logger.Info("Starting prdrag API server",
			zap.String("version", version.Version),
			zap.String("commit", version.Commit),
			zap.String("go", version.Get().GoVersion),
			zap.String("env", currentEnv()),
			zap.Int("http_port", port),
			zap.String("embedding_provider", cfg.Embedding.Provider),
			zap.String("generation_provider", cfg.Generation.Provider),
			zap.Bool("cache", a.store != nil),
		)

		server := chiTransport.NewServer(a.pipeline, a.retriever, a.usage, a.health, a.logger)
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, a.logger),
			ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
			WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
			a.logger.Info("Received shutdown signal")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error during shutdown", zap.Error(err))
			return fmt.Errorf("shutdown: %w", err)
		}
		a.logger.Info("Server stopped gracefully")
		return nil
	})
}
