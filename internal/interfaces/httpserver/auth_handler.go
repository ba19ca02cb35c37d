package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"coachchat/ai-bridge/internal/domain/user"
)

// ChatTokenMinter signs chat-backend user tokens for the frontend.
type ChatTokenMinter interface {
	MintUserToken(userID string) (string, error)
}

// TokenVerifier resolves a first-party access token to its subject.
type TokenVerifier interface {
	Subject(tokenString string) (string, error)
}

// AuthHandler exposes first-party registration, login and chat-token
// minting.
type AuthHandler struct {
	users    *user.Service
	verifier TokenVerifier
	minter   ChatTokenMinter
	log      zerolog.Logger
}

// NewAuthHandler wires the auth endpoints.
func NewAuthHandler(users *user.Service, verifier TokenVerifier, minter ChatTokenMinter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		verifier: verifier,
		minter:   minter,
		log:      log.With().Str("component", "auth-handler").Logger(),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, user.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "username or email already taken"})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(account))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{User: toUserResponse(account), Token: token})
}

// ChatToken handles POST /api/auth/chat-token: it exchanges a valid
// first-party token for a chat-backend user token.
func (h *AuthHandler) ChatToken(c *gin.Context) {
	username, ok := h.subjectFromHeader(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}

	token, err := h.minter.MintUserToken(username)
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("chat token minting failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, ChatTokenResponse{Token: token})
}

func (h *AuthHandler) subjectFromHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	subject, err := h.verifier.Subject(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", false
	}
	return subject, true
}

func toUserResponse(account *user.User) UserResponse {
	return UserResponse{
		ID:       account.PublicID,
		Username: account.Username,
		Email:    account.Email,
	}
}
