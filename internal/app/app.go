package app

import (
	"log/slog"
	"time"

	httpapp "stratosphere/internal/app/http"
	httpserver "stratosphere/internal/http"
	"stratosphere/internal/services/auth"
	"stratosphere/internal/services/posts"
)

type App struct {
	HTTPServer *httpapp.App
	StorageApp *StorageApp
}

func New(
	log *slog.Logger,
	httpPort int,
	httpTimeout time.Duration,
	storageApp *StorageApp,
	tokenTTL time.Duration,
	sessionMaxAge time.Duration,
) *App {
	authService := auth.New(log, storageApp.Storage(), storageApp.Storage(), storageApp.Storage(), storageApp.Storage(), tokenTTL, sessionMaxAge)

	postsService := posts.New(log, storageApp.Storage(), storageApp.Storage())

	server := httpserver.New(log, authService, postsService)

	httpApp := httpapp.New(log, server, httpPort, httpTimeout)

	return &App{
		HTTPServer: httpApp,
		StorageApp: storageApp,
	}
}
