package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchmaker/internal/service"
	"matchmaker/internal/staging"
)

// SessionHandler abre sesiones de matching.
type SessionHandler struct {
	logger *zap.Logger
	store  staging.Store
	tokens *service.SessionTokenService
}

func NewSessionHandler(logger *zap.Logger, store staging.Store, tokens *service.SessionTokenService) *SessionHandler {
	return &SessionHandler{logger: logger, store: store, tokens: tokens}
}

// CreateSession maneja POST /sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	sessionID := uuid.NewString()
	token, err := h.tokens.Issue(sessionID)
	if err != nil {
		h.logger.Error("issue session token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	state, err := h.store.Create(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sessionID,
		"token":      token.Token,
		"expires_in": token.ExpiresIn,
		"state":      state,
	})
}
