package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/lib/logger/sl"
	"stratosphere/internal/lib/random"
	"stratosphere/internal/storage"
)

const (
	accessTokenLength  = 25
	refreshTokenLength = 33
	userIDLength       = 23
)

type Auth struct {
	log             *slog.Logger
	userSaver       UserSaver
	userProvider    UserProvider
	sessionSaver    SessionSaver
	sessionProvider SessionProvider
	tokenTTL        time.Duration
	sessionMaxAge   time.Duration
}

// Register creates a new user with a hashed password and returns the user ID.
func (a *Auth) Register(ctx context.Context, nickname, email, password string) (string, error) {
	const op = "Auth.Register"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := random.NewString(userIDLength)
	if err != nil {
		log.Error("failed to generate user id", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	user := models.User{
		ID:        id,
		Nickname:  nickname,
		Email:     email,
		PassHash:  passHash,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.userSaver.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists", sl.Err(err))
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		log.Error("failed to save user", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	return user.ID, nil
}

// Login checks the credentials and mints a fresh session for the user.
//
// If the user exists but the password is incorrect, returns ErrInvalidCredentials.
// If the user doesn't exist, returns ErrInvalidCredentials as well.
func (a *Auth) Login(ctx context.Context, email, password string) (models.Session, error) {
	const op = "Auth.Login"

	log := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := a.userProvider.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found", sl.Err(err))
			return models.Session{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	session, err := a.CreateSession(ctx, user.ID)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully")

	return session, nil
}

// CreateSession mints a new access/refresh token pair for the owner and
// persists it. On an access-token collision it retries once with fresh
// randomness; a second collision is treated as a storage failure.
func (a *Auth) CreateSession(ctx context.Context, ownerID string) (models.Session, error) {
	const op = "Auth.CreateSession"

	log := a.log.With(
		slog.String("op", op),
		slog.String("owner_id", ownerID),
	)

	for attempt := 0; attempt < 2; attempt++ {
		session, err := a.newSession(ownerID)
		if err != nil {
			log.Error("failed to generate session tokens", sl.Err(err))
			return models.Session{}, fmt.Errorf("%s: %w", op, err)
		}

		err = a.sessionSaver.UpsertSession(ctx, session)
		if err == nil {
			log.Info("session created")
			return session, nil
		}

		if errors.Is(err, storage.ErrAccessTokenTaken) {
			log.Warn("access token collision, retrying", sl.Err(err))
			continue
		}

		log.Error("failed to save session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	log.Error("access token collision persisted after retry")

	return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
}

// ValidateAccessToken resolves an access token to the owning user ID. It is
// invoked on every authenticated request and never mutates the session.
func (a *Auth) ValidateAccessToken(ctx context.Context, token string) (string, error) {
	const op = "Auth.ValidateAccessToken"

	log := a.log.With(slog.String("op", op))

	session, err := a.sessionProvider.SessionByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrUnknownToken)
		}

		log.Error("failed to get session", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	if err := a.checkExpiry(session, time.Now()); err != nil {
		if errors.Is(err, ErrAuthExpired) {
			a.cleanupHardExpired(ctx, log, session)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return session.OwnerID, nil
}

// RefreshSession rotates the access token of the session identified by the
// refresh token and slides the expiry window forward. The refresh token itself
// is never rotated. An already-expired session cannot be revived here: the
// expiry policy is re-evaluated exactly as in validation before any rotation.
func (a *Auth) RefreshSession(ctx context.Context, refreshToken string) (models.Session, error) {
	const op = "Auth.RefreshSession"

	log := a.log.With(slog.String("op", op))

	log.Info("attempting to refresh session")

	session, err := a.sessionProvider.SessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("refresh token not found")
			return models.Session{}, fmt.Errorf("%s: %w", op, ErrUnknownRefresh)
		}

		log.Error("failed to get session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	if err := a.checkExpiry(session, time.Now()); err != nil {
		if errors.Is(err, ErrAuthExpired) {
			a.cleanupHardExpired(ctx, log, session)
		}
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	// A session whose owner no longer resolves is dead weight.
	if _, err := a.userProvider.UserByID(ctx, session.OwnerID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("session owner not found", slog.String("owner_id", session.OwnerID))
			return models.Session{}, fmt.Errorf("%s: %w", op, ErrUnknownRefresh)
		}

		log.Error("failed to resolve session owner", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	newToken, err := random.NewString(accessTokenLength)
	if err != nil {
		log.Error("failed to generate access token", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session.AccessToken = newToken
	session.ExpiresAt = time.Now().Add(a.tokenTTL)

	if err := a.sessionSaver.UpsertSession(ctx, session); err != nil {
		if errors.Is(err, storage.ErrAccessTokenTaken) {
			log.Warn("access token collision on rotation", sl.Err(err))
			return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
		}

		log.Error("failed to save rotated session", sl.Err(err))
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	log.Info("session refreshed")

	return session, nil
}

// RevokeSession deletes the session identified by the refresh token. Revoking
// an unknown token is a no-op.
func (a *Auth) RevokeSession(ctx context.Context, refreshToken string) error {
	const op = "Auth.RevokeSession"

	log := a.log.With(slog.String("op", op))

	log.Info("revoking session")

	if err := a.sessionSaver.DeleteSessionByRefreshToken(ctx, refreshToken); err != nil {
		log.Error("failed to revoke session", sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}

	log.Info("session revoked")

	return nil
}

// checkExpiry enforces both expiry horizons: the sliding window first, then
// the absolute lifetime measured from creation, which no rotation can extend.
func (a *Auth) checkExpiry(session models.Session, now time.Time) error {
	if now.After(session.ExpiresAt) {
		return ErrTokenExpired
	}
	if now.After(session.CreatedAt.Add(a.sessionMaxAge)) {
		return ErrAuthExpired
	}
	return nil
}

// cleanupHardExpired removes a session that crossed its absolute lifetime.
// Best effort: the caller's error is already decided.
func (a *Auth) cleanupHardExpired(ctx context.Context, log *slog.Logger, session models.Session) {
	if err := a.sessionSaver.DeleteSessionByRefreshToken(ctx, session.RefreshToken); err != nil {
		log.Warn("failed to delete hard-expired session", sl.Err(err))
	}
}

func (a *Auth) newSession(ownerID string) (models.Session, error) {
	accessToken, err := random.NewString(accessTokenLength)
	if err != nil {
		return models.Session{}, err
	}

	refreshToken, err := random.NewString(refreshTokenLength)
	if err != nil {
		return models.Session{}, err
	}

	now := time.Now()

	return models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		OwnerID:      ownerID,
		ExpiresAt:    now.Add(a.tokenTTL),
		CreatedAt:    now,
	}, nil
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUnknownToken       = errors.New("unknown access token")
	ErrUnknownRefresh     = errors.New("unknown refresh token")
	ErrTokenExpired       = errors.New("access token expired")
	ErrAuthExpired        = errors.New("authorization expired")
	ErrStoreUnavailable   = errors.New("storage unavailable")
)

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) error
}

type UserProvider interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
}

type SessionSaver interface {
	UpsertSession(ctx context.Context, session models.Session) error
	DeleteSessionByRefreshToken(ctx context.Context, refreshToken string) error
}

type SessionProvider interface {
	SessionByAccessToken(ctx context.Context, token string) (models.Session, error)
	SessionByRefreshToken(ctx context.Context, refreshToken string) (models.Session, error)
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	sessionSaver SessionSaver,
	sessionProvider SessionProvider,
	tokenTTL time.Duration,
	sessionMaxAge time.Duration,
) *Auth {
	return &Auth{
		log:             log,
		userSaver:       userSaver,
		userProvider:    userProvider,
		sessionSaver:    sessionSaver,
		sessionProvider: sessionProvider,
		tokenTTL:        tokenTTL,
		sessionMaxAge:   sessionMaxAge,
	}
}
