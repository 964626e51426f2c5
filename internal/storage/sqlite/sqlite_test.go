package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stratosphere_test.db")

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "1_init.up.sql"))
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func saveTestUser(t *testing.T, s *Storage, id string) {
	t.Helper()

	now := time.Now()
	require.NoError(t, s.SaveUser(context.Background(), models.User{
		ID:        id,
		Nickname:  "nick-" + id,
		Email:     id + "@example.com",
		PassHash:  []byte("hash"),
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func TestUpsertSession_InsertAndUpdate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	now := time.Now()
	session := models.Session{
		AccessToken:  "access-token-one",
		RefreshToken: "refresh-token-one",
		OwnerID:      "u1",
		ExpiresAt:    now.Add(7 * 24 * time.Hour),
		CreatedAt:    now,
	}

	require.NoError(t, s.UpsertSession(ctx, session))

	// Same refresh token: updated in place, not duplicated.
	session.AccessToken = "access-token-two"
	session.ExpiresAt = now.Add(8 * 24 * time.Hour)
	require.NoError(t, s.UpsertSession(ctx, session))

	got, err := s.SessionByRefreshToken(ctx, "refresh-token-one")
	require.NoError(t, err)
	assert.Equal(t, "access-token-two", got.AccessToken)
	assert.Equal(t, "u1", got.OwnerID)

	_, err = s.SessionByAccessToken(ctx, "access-token-one")
	require.ErrorIs(t, err, storage.ErrSessionNotFound)

	got, err = s.SessionByAccessToken(ctx, "access-token-two")
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-one", got.RefreshToken)
}

func TestUpsertSession_AccessTokenConflict(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	now := time.Now()
	require.NoError(t, s.UpsertSession(ctx, models.Session{
		AccessToken:  "colliding-access-token",
		RefreshToken: "refresh-token-one",
		OwnerID:      "u1",
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
	}))

	err := s.UpsertSession(ctx, models.Session{
		AccessToken:  "colliding-access-token",
		RefreshToken: "refresh-token-two",
		OwnerID:      "u1",
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
	})
	require.ErrorIs(t, err, storage.ErrAccessTokenTaken)
}

func TestDeleteSessionByRefreshToken(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	now := time.Now()
	require.NoError(t, s.UpsertSession(ctx, models.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		OwnerID:      "u1",
		ExpiresAt:    now.Add(time.Hour),
		CreatedAt:    now,
	}))

	require.NoError(t, s.DeleteSessionByRefreshToken(ctx, "refresh-token"))

	_, err := s.SessionByRefreshToken(ctx, "refresh-token")
	require.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Deleting a missing row is not an error.
	require.NoError(t, s.DeleteSessionByRefreshToken(ctx, "refresh-token"))
}

func TestSaveUser_UniqueConstraints(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	now := time.Now()
	err := s.SaveUser(ctx, models.User{
		ID:        "u2",
		Nickname:  "nick-u2",
		Email:     "u1@example.com",
		PassHash:  []byte("hash"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.ErrorIs(t, err, storage.ErrUserExists)

	err = s.SaveUser(ctx, models.User{
		ID:        "u3",
		Nickname:  "nick-u1",
		Email:     "u3@example.com",
		PassHash:  []byte("hash"),
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.ErrorIs(t, err, storage.ErrUserExists)
}

func TestUserLookups(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	byEmail, err := s.UserByEmail(ctx, "u1@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	byID, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "nick-u1", byID.Nickname)

	_, err = s.UserByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = s.UserByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestUser(t, s, "u1")

	now := time.Now()
	post := models.Post{
		ID:        "post-one",
		OwnerID:   "u1",
		IsPublic:  true,
		Content:   "hello",
		CreatedAt: now,
		EditedAt:  now,
	}

	require.NoError(t, s.SavePost(ctx, post))

	got, err := s.PostByID(ctx, "post-one")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	got.Content = "edited"
	got.EditedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdatePost(ctx, got))

	got, err = s.PostByID(ctx, "post-one")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	require.NoError(t, s.DeletePost(ctx, "post-one"))

	_, err = s.PostByID(ctx, "post-one")
	require.ErrorIs(t, err, storage.ErrPostNotFound)
}
