package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/park285/cheese-chess/internal/appbuilder"
	appcfg "github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/obslog"
	"go.uber.org/zap"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	deps, err := appbuilder.NewRelay(cfg, logger)
	if err != nil {
		logger.Fatal("relay_init_error", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.RelayAddr,
		Handler:           deps.Hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("relay_listen", zap.String("addr", cfg.RelayAddr), zap.Bool("strict_moves", cfg.StrictMoves))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if deps.Admin != nil {
		go func() {
			logger.Info("admin_listen", zap.String("addr", cfg.AdminAddr))
			if err := deps.Admin.ListenAndServe(cfg.AdminAddr); err != nil {
				errCh <- err
			}
		}()
	}

	// Wait for termination signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("relay_signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("listener_failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var result *multierror.Error
	if err := deps.Hub.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if deps.Admin != nil {
		if err := deps.Admin.Shutdown(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := deps.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Error("shutdown_incomplete", zap.Error(err))
		return
	}
	logger.Info("relay_stopped")
}
