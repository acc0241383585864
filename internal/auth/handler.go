package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/config"
	"community-registration/volunteer-forms-backend/pkg/security"
)

const (
	// RoleAdmin is the only role the service issues.
	RoleAdmin = "admin"

	tokenIssuer = "volunteer-forms"
	claimsKey   = "claims"
)

var (
	ErrAuthDisabled       = errors.New("admin authentication is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// LoginRequest carries the shared admin password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Handler struct {
	enabled      bool
	passwordHash string
	tokens       *security.TokenIssuer
	logger       *zap.Logger
}

func NewHandler(cfg config.AuthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		enabled:      cfg.Enabled,
		passwordHash: cfg.AdminPasswordHash,
		tokens:       security.NewTokenIssuer(cfg.JWTSecret, tokenIssuer, cfg.TokenTTL),
		logger:       logger,
	}
}

// Login exchanges the admin password for a session token.
func (h *Handler) Login(c *gin.Context) {
	if !h.enabled {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrAuthDisabled.Error()})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := security.CheckPassword(h.passwordHash, req.Password); err != nil {
		h.logger.Warn("Rejected admin login", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Error()})
		return
	}

	token, expires, err := h.tokens.Issue(RoleAdmin, RoleAdmin)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// RequireAdmin rejects requests without a valid admin token. It lets
// everything through when authentication is disabled.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.enabled {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			// Browsers cannot set headers on WebSocket handshakes.
			token, ok = c.GetQuery("access_token")
		}
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := h.tokens.Verify(token)
		if err != nil || claims.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}
