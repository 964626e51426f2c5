package suite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stratosphere/internal/app"
	httpserver "stratosphere/internal/http"
	"stratosphere/internal/middleware"
	"stratosphere/internal/services/auth"
	"stratosphere/internal/services/posts"
)

const (
	testTokenTTL      = 7 * 24 * time.Hour
	testSessionMaxAge = 50 * 24 * time.Hour
)

type Suite struct {
	*testing.T
	Server *httptest.Server
	Client *http.Client
}

// New spins up the full service against a throwaway SQLite database and
// returns an httptest server wrapped in the production middleware chain.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	storagePath := filepath.Join(t.TempDir(), "stratosphere_test.db")
	applyMigrations(t, storagePath)

	storageApp, err := app.NewStorageApp(storagePath)
	if err != nil {
		t.Fatalf("failed to init storage: %v", err)
	}
	t.Cleanup(func() { _ = storageApp.Stop() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	authService := auth.New(log, storageApp.Storage(), storageApp.Storage(), storageApp.Storage(), storageApp.Storage(), testTokenTTL, testSessionMaxAge)
	postsService := posts.New(log, storageApp.Storage(), storageApp.Storage())

	server := httpserver.New(log, authService, postsService)

	handler := server.Router()
	handler = middleware.Logging(log)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(log)(handler)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	return ctx, &Suite{
		T:      t,
		Server: ts,
		Client: ts.Client(),
	}
}

func applyMigrations(t *testing.T, storagePath string) {
	t.Helper()

	schema, err := os.ReadFile(filepath.Join("..", "migrations", "1_init.up.sql"))
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
}

// Do sends a JSON request with an optional bearer token and decodes the JSON
// response body.
func (s *Suite) Do(ctx context.Context, method, path, token string, body any) (int, map[string]any) {
	s.T.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.T.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.Server.URL+path, reqBody)
	if err != nil {
		s.T.Fatalf("failed to build request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.T.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		s.T.Fatalf("failed to decode response body: %v", err)
	}

	return resp.StatusCode, decoded
}
