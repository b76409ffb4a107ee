package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/quintalabs/storefront/internal/auth"
	"github.com/quintalabs/storefront/internal/config"
	"github.com/quintalabs/storefront/internal/domain/user"
	"github.com/quintalabs/storefront/internal/http/middlewares"
	"github.com/quintalabs/storefront/internal/security"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type TokenStore interface {
	Create(ctx context.Context, row auth.TokenRow) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type AuthHandler struct {
	users  UserStore
	tokens TokenStore
	log    *slog.Logger
}

func NewAuthHandler(users UserStore, tokens TokenStore, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		h.log.Error("hash password", "err", err)
		RespondInternal(ctx, "Registration failed")
		return
	}

	u, err := h.users.Create(cctx, req.Name, req.Email, hash)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			msg := "The email has already been taken."
			RespondValidation(ctx, msg, map[string][]string{"email": {msg}})
			return
		}

		h.log.Error("create user", "err", err)
		RespondInternal(ctx, "Registration failed")
		return
	}

	token, err := h.issueToken(cctx, u.ID)

	if err != nil {
		h.log.Error("issue token", "err", err)
		RespondInternal(ctx, "Registration failed")
		return
	}

	RespondSuccess(ctx, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u.Summary(),
		"token":   token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// unknown email and wrong password respond identically so the
	// endpoint does not leak account existence
	u, err := h.users.GetByEmail(cctx, req.Email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "Invalid credentials")
			return
		}

		h.log.Error("lookup user", "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	// single active token policy: revoke everything issued before
	if err := h.tokens.DeleteAllForUser(cctx, u.ID); err != nil {
		h.log.Error("revoke tokens", "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	token, err := h.issueToken(cctx, u.ID)

	if err != nil {
		h.log.Error("issue token", "err", err)
		RespondInternal(ctx, "Login failed")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"user":    u.Summary(),
		"token":   token,
	})
}

func (h *AuthHandler) CurrentUser(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthenticated")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"user": u.SummaryWithCreatedAt(),
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	u, ok := middlewares.CurrentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Unauthenticated")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	// logout everywhere: every token the user holds is revoked
	if err := h.tokens.DeleteAllForUser(cctx, u.ID); err != nil {
		h.log.Error("revoke tokens", "err", err)
		RespondInternal(ctx, "Logout failed")
		return
	}

	RespondSuccess(ctx, http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) issueToken(ctx context.Context, userID int64) (string, error) {
	plain, err := auth.NewToken()

	if err != nil {
		return "", err
	}

	row := auth.TokenRow{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: auth.HashToken(plain),
		CreatedAt: time.Now().UTC(),
	}

	if err := h.tokens.Create(ctx, row); err != nil {
		return "", err
	}

	return plain, nil
}
