package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpx "oraconnect/internal/http"
	"oraconnect/internal/store/oracle"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the pool open and expose /health and /stats over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	pool := oracle.MustOpen(ctx, oracle.ParamsFromConfig(cfg), connectOpts...)
	defer pool.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      httpx.NewRouter(httpx.RouterDependencies{Config: cfg, Pool: pool}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("oraconnect listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
	return nil
}
