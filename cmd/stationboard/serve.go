package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stationboard.org/internal/restapi"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the departure board over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var listenPort int

func init() {
	serveCmd.Flags().IntVarP(&listenPort, "port", "p", 0, "Port to listen on, overriding the config")
}

func serve(cmd *cobra.Command, args []string) error {
	application, err := loadApplication()
	if err != nil {
		return err
	}
	cfg := application.Config
	if listenPort != 0 {
		cfg.Server.Port = listenPort
	}

	api := restapi.NewRestAPI(application)
	defer api.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Handler(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(application.Logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		application.Logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("stop_id", cfg.Stop.ID),
			slog.String("predictions", cfg.Source.Predictions))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	application.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	application.Logger.Info("server stopped")
	return nil
}
