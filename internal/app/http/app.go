package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpserver "stratosphere/internal/http"
	"stratosphere/internal/middleware"
)

type App struct {
	log    *slog.Logger
	server *http.Server
	port   int
}

// New assembles the HTTP server with its middleware chain: recovery first,
// then request tagging and logging, then the route table.
func New(log *slog.Logger, server *httpserver.Server, port int, timeout time.Duration) *App {
	handler := server.Router()
	handler = middleware.Logging(log)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(log)(handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	return &App{
		log:    log,
		server: httpServer,
		port:   port,
	}
}

func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

func (a *App) Run() error {
	const op = "httpapp.Run"

	a.log.Info("http server started", slog.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) GracefulStop(ctx context.Context) error {
	const op = "httpapp.GracefulStop"

	a.log.With(slog.String("op", op)).
		Info("stopping http server", slog.Int("port", a.port))

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *App) Stop() {
	const op = "httpapp.Stop"

	a.log.With(slog.String("op", op)).
		Info("force stopping http server", slog.Int("port", a.port))

	_ = a.server.Close()
}
