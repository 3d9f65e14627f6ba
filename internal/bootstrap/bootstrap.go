package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App runs the HTTP server and the background workers until ctx is
// canceled or one of them fails.
type App struct {
	cfg     config.Config
	handler http.Handler
	workers []application.Worker
	log     *zap.Logger
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		a.log.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, w := range a.workers {
		g.Go(func() error {
			w.Start(ctx)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		a.log.Info("server stopped", zap.Error(err))
		return err
	})
	return g.Wait()
}
