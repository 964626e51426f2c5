package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"stratosphere/internal/domain/models"
	"stratosphere/internal/middleware"
	"stratosphere/internal/services/auth"
	"stratosphere/internal/services/posts"
)

// Auth is the session/identity surface consumed by the transport layer.
type Auth interface {
	Register(ctx context.Context, nickname, email, password string) (userID string, err error)
	Login(ctx context.Context, email, password string) (models.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (models.Session, error)
	RevokeSession(ctx context.Context, refreshToken string) error
	ValidateAccessToken(ctx context.Context, token string) (ownerID string, err error)
}

type Posts interface {
	CreatePost(ctx context.Context, ownerID, content string, public bool) (postID string, err error)
	EditPost(ctx context.Context, ownerID, postID, content string) error
	DeletePost(ctx context.Context, ownerID, postID string) error
}

type Server struct {
	log   *slog.Logger
	auth  Auth
	posts Posts
}

func New(log *slog.Logger, authService Auth, postsService Posts) *Server {
	return &Server{
		log:   log,
		auth:  authService,
		posts: postsService,
	}
}

// Router builds the route table. Public routes first; everything under /v1/
// goes through the access-token guard. The refresh token is accepted only by
// the refresh and logout endpoints.
func (s *Server) Router() http.Handler {
	guard := middleware.NewAuthMiddleware(s.auth)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /user/create", s.createUser)
	mux.HandleFunc("POST /user/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refresh)
	mux.HandleFunc("POST /auth/logout", s.logout)

	mux.Handle("POST /v1/post/create", guard.Guard(http.HandlerFunc(s.createPost)))
	mux.Handle("PATCH /v1/post/edit", guard.Guard(http.HandlerFunc(s.editPost)))
	mux.Handle("DELETE /v1/post/delete", guard.Guard(http.HandlerFunc(s.deletePost)))

	return mux
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	if req.Nickname == "" || req.Email == "" || req.Password == "" {
		s.respondError(w, http.StatusBadRequest, "nickname, email and password are required")
		return
	}

	if _, err := s.auth.Register(r.Context(), req.Nickname, req.Email, req.Password); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Successfully created user!",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Authorization created",
		"token":    session.AccessToken,
		"refresh":  session.RefreshToken,
		"expiry":   session.ExpiresAt.Unix(),
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	if req.Refresh == "" {
		s.respondError(w, http.StatusBadRequest, "The Refresh Token provided is malformed or missing.")
		return
	}

	session, err := s.auth.RefreshSession(r.Context(), req.Refresh)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Authorization refreshed",
		"token":    session.AccessToken,
		"expiry":   session.ExpiresAt.Unix(),
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	if req.Refresh == "" {
		s.respondError(w, http.StatusBadRequest, "The Refresh Token provided is malformed or missing.")
		return
	}

	if err := s.auth.RevokeSession(r.Context(), req.Refresh); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Session revoked",
	})
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "An internal server error has occured!")
		return
	}

	var req struct {
		Content string `json:"content"`
		Public  bool   `json:"public"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	id, err := s.posts.CreatePost(r.Context(), ownerID, req.Content, req.Public)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Post successfully created!",
		"id":       id,
	})
}

func (s *Server) editPost(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "An internal server error has occured!")
		return
	}

	var req struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	if err := s.posts.EditPost(r.Context(), ownerID, req.ID, req.Content); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Post successfully edited!",
	})
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "An internal server error has occured!")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if !s.parseBody(w, r, &req) {
		return
	}

	if err := s.posts.DeletePost(r.Context(), ownerID, req.ID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":   http.StatusOK,
		"response": "Post successfully deleted!",
	})
}

func (s *Server) parseBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to parse JSON body")
		return false
	}
	return true
}

// respondServiceError maps service error kinds onto HTTP statuses. Auth
// rejections and infrastructure failures must stay distinguishable.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, "The Email or Password submitted is invalid!")
	case errors.Is(err, auth.ErrUserExists):
		s.respondError(w, http.StatusConflict, "The requested email or nickname is already in use!")
	case errors.Is(err, auth.ErrUnknownToken):
		s.respondError(w, http.StatusUnauthorized, "The Token provided could not be linked to a session!")
	case errors.Is(err, auth.ErrUnknownRefresh):
		s.respondError(w, http.StatusUnauthorized, "The Refresh Token provided could not be linked to a session!")
	case errors.Is(err, auth.ErrTokenExpired):
		s.respondError(w, http.StatusUnauthorized, "The Token provided has expired!")
	case errors.Is(err, auth.ErrAuthExpired):
		s.respondError(w, http.StatusUnauthorized, "The Authorization linked to this token has expired.")
	case errors.Is(err, auth.ErrStoreUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, "A server error has occured! Please try again later.")
	case errors.Is(err, posts.ErrEmptyContent):
		s.respondError(w, http.StatusBadRequest, "The post submitted contains no text!")
	case errors.Is(err, posts.ErrContentTooLong):
		s.respondError(w, http.StatusBadRequest, "The post content exceeds the maximum size of 500!")
	case errors.Is(err, posts.ErrPostNotFound):
		s.respondError(w, http.StatusNotFound, "The requested Post could not be found.")
	case errors.Is(err, posts.ErrNotOwner):
		s.respondError(w, http.StatusForbidden, "The Authenticated User is not the owner of this post.")
	default:
		s.respondError(w, http.StatusInternalServerError, "An internal server error has occured!")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]any{"status": status, "response": msg})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", slog.Any("error", err))
	}
}
