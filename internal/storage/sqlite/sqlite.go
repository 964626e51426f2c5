// Migrations init script: go run ./cmd/migrator --storage-path=./storage/stratosphere.db --migrations-path=./migrations
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/storage"
)

type Storage struct {
	db *sql.DB
}

// New opens the database and verifies connectivity before handing the handle
// out. Callers own the lifecycle; nothing here is process-global.
func New(storagePath string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) SaveUser(ctx context.Context, user models.User) error {
	const op = "storage.sqlite.SaveUser"

	stmt, err := s.db.Prepare(`
		INSERT INTO users (id, nickname, email, pass_hash, rank, is_private, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.ID, user.Nickname, user.Email, user.PassHash, user.Rank, user.IsPrivate, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UserByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.sqlite.UserByEmail"

	stmt, err := s.db.Prepare("SELECT id, nickname, email, pass_hash, rank, is_private, created_at, updated_at FROM users WHERE email = ?")
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var user models.User
	err = stmt.QueryRowContext(ctx, email).Scan(&user.ID, &user.Nickname, &user.Email, &user.PassHash, &user.Rank, &user.IsPrivate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (s *Storage) UserByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.sqlite.UserByID"

	stmt, err := s.db.Prepare("SELECT id, nickname, email, pass_hash, rank, is_private, created_at, updated_at FROM users WHERE id = ?")
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var user models.User
	err = stmt.QueryRowContext(ctx, id).Scan(&user.ID, &user.Nickname, &user.Email, &user.PassHash, &user.Rank, &user.IsPrivate, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpsertSession inserts the session or, when a row with the same refresh token
// already exists, rewrites its access token and expiry in place. A unique
// violation surviving the conflict clause can only come from the access token
// index, so it is classified through the driver's extended error code rather
// than the message text.
func (s *Storage) UpsertSession(ctx context.Context, session models.Session) error {
	const op = "storage.sqlite.UpsertSession"

	stmt, err := s.db.Prepare(`
		INSERT INTO sessions (access_token, refresh_token, owner_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(refresh_token) DO UPDATE SET
			access_token = excluded.access_token,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, session.AccessToken, session.RefreshToken, session.OwnerID, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%s: %w", op, storage.ErrAccessTokenTaken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SessionByAccessToken(ctx context.Context, token string) (models.Session, error) {
	const op = "storage.sqlite.SessionByAccessToken"

	stmt, err := s.db.Prepare(`
		SELECT access_token, refresh_token, owner_id, expires_at, created_at
		FROM sessions WHERE access_token = ?
	`)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var session models.Session
	err = stmt.QueryRowContext(ctx, token).Scan(&session.AccessToken, &session.RefreshToken, &session.OwnerID, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *Storage) SessionByRefreshToken(ctx context.Context, refreshToken string) (models.Session, error) {
	const op = "storage.sqlite.SessionByRefreshToken"

	stmt, err := s.db.Prepare(`
		SELECT access_token, refresh_token, owner_id, expires_at, created_at
		FROM sessions WHERE refresh_token = ?
	`)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var session models.Session
	err = stmt.QueryRowContext(ctx, refreshToken).Scan(&session.AccessToken, &session.RefreshToken, &session.OwnerID, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, fmt.Errorf("%s: %w", op, storage.ErrSessionNotFound)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (s *Storage) DeleteSessionByRefreshToken(ctx context.Context, refreshToken string) error {
	const op = "storage.sqlite.DeleteSessionByRefreshToken"

	stmt, err := s.db.Prepare("DELETE FROM sessions WHERE refresh_token = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SavePost(ctx context.Context, post models.Post) error {
	const op = "storage.sqlite.SavePost"

	stmt, err := s.db.Prepare(`
		INSERT INTO posts (id, owner_id, is_public, content, created_at, edited_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, post.ID, post.OwnerID, post.IsPublic, post.Content, post.CreatedAt, post.EditedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) PostByID(ctx context.Context, id string) (models.Post, error) {
	const op = "storage.sqlite.PostByID"

	stmt, err := s.db.Prepare("SELECT id, owner_id, is_public, content, created_at, edited_at FROM posts WHERE id = ?")
	if err != nil {
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var post models.Post
	err = stmt.QueryRowContext(ctx, id).Scan(&post.ID, &post.OwnerID, &post.IsPublic, &post.Content, &post.CreatedAt, &post.EditedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Post{}, fmt.Errorf("%s: %w", op, storage.ErrPostNotFound)
		}
		return models.Post{}, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (s *Storage) UpdatePost(ctx context.Context, post models.Post) error {
	const op = "storage.sqlite.UpdatePost"

	stmt, err := s.db.Prepare("UPDATE posts SET content = ?, is_public = ?, edited_at = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, post.Content, post.IsPublic, post.EditedAt, post.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeletePost"

	stmt, err := s.db.Prepare("DELETE FROM posts WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
