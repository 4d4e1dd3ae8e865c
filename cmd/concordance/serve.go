package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gcbaptista/imagination-concordance/api"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web service",
	Long: `Load the corpus and serve the search page and API.

A corpus that fails to load does not stop the server: the page reports the
problem and searches answer 503 until the service is restarted.

Examples:
  concordance serve
  concordance serve --port 9000
  concordance serve --config /etc/imagination/concordance.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		settings.Server.Port = port
	}
	gin.SetMode(settings.Server.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(settings, logger)
	if err != nil {
		return err
	}

	if _, err := app.loadCorpus(ctx); err != nil {
		logger.Error("starting without corpus", "error", err)
	}

	app.sessions.Start()
	defer app.sessions.Stop()

	router := api.NewRouter(api.Dependencies{
		Settings:  settings,
		Corpus:    app.store,
		Status:    app.loader,
		Searcher:  app.searcher,
		Sessions:  app.sessions,
		Analytics: app.analytics,
		Logger:    logger,
	})

	server := &http.Server{
		Addr:              settings.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	app.flushAnalytics(logger)
	return nil
}
