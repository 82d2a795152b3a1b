package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ragcompare-backend/config"
	"ragcompare-backend/logging"

	"github.com/gin-gonic/gin"
	"github.com/ternarybob/arbor"
)

const shutdownTimeout = 10 * time.Second

// Bootstrap loads .env and the environment, then builds the process logger
func Bootstrap() (*config.Config, arbor.ILogger, error) {
	envLoaded := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if !envLoaded {
		logger.Warn().Msg("No .env file found, using environment variables")
	}
	gin.SetMode(cfg.GinMode)
	return cfg, logger, nil
}

// Serve runs the HTTP API until ctx is cancelled or SIGINT/SIGTERM arrives
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("port", a.Config.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
