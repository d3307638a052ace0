package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
	"matchmaker/internal/service"
	"matchmaker/internal/staging"
)

// MatchHandler expone el flujo de matching y las vistas de resultados de una sesion.
type MatchHandler struct {
	logger  *zap.Logger
	store   staging.Store
	matches *service.MatchService
	cards   *service.CardPresenter
}

func NewMatchHandler(logger *zap.Logger, store staging.Store, matches *service.MatchService, cards *service.CardPresenter) *MatchHandler {
	return &MatchHandler{logger: logger, store: store, matches: matches, cards: cards}
}

type resultsView struct {
	Phase domain.Phase        `json:"phase"`
	State domain.SessionState `json:"state"`
	Cards []service.Card      `json:"cards"`
}

func (h *MatchHandler) view(state domain.SessionState) resultsView {
	cards := h.cards.Cards(state.Result)
	if cards == nil {
		cards = []service.Card{}
	}
	return resultsView{Phase: state.Phase(), State: state, Cards: cards}
}

// Prefetch maneja POST /sessions/:id/prefetch.
func (h *MatchHandler) Prefetch(c *gin.Context) {
	var req struct {
		ProfileURL string `json:"profile_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sessionID := c.Param("id")
	if !h.sessionExists(c, sessionID) {
		return
	}

	if err := h.matches.Prefetch(c.Request.Context(), sessionID, req.ProfileURL); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "prefetching"})
}

// StartMatches maneja POST /sessions/:id/matches.
func (h *MatchHandler) StartMatches(c *gin.Context) {
	var req struct {
		domain.Profile
		Filters domain.SearchFilters `json:"filters"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid match request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sessionID := c.Param("id")
	if !h.sessionExists(c, sessionID) {
		return
	}
	if claims, ok := GetSessionClaims(c); ok && claims.ExpiresAt != nil {
		h.logger.Info("match run requested",
			zap.String("session_id", claims.SessionID),
			zap.Time("token_expires_at", claims.ExpiresAt.Time),
			zap.Bool("hiring", req.Profile.IsHiring()),
		)
	}

	state, err := h.matches.Run(c.Request.Context(), sessionID, service.MatchRequest{
		Profile: req.Profile,
		Filters: req.Filters,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, h.view(state))
	case errors.Is(err, service.ErrUpstreamFatal):
		h.logger.Warn("match run failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": state.Error, "result": h.view(state)})
	default:
		h.writeError(c, err)
	}
}

// GetMatches maneja GET /sessions/:id/matches.
func (h *MatchHandler) GetMatches(c *gin.Context) {
	state, ok := h.loadState(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.view(state))
}

// GetStorage maneja GET /sessions/:id/storage con las claves de formato antiguo.
func (h *MatchHandler) GetStorage(c *gin.Context) {
	state, ok := h.loadState(c)
	if !ok {
		return
	}
	keys, err := state.LegacyKeys()
	if err != nil {
		h.logger.Error("legacy keys failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not render storage"})
		return
	}
	c.JSON(http.StatusOK, keys)
}

// StreamEvents maneja GET /sessions/:id/events como SSE.
// El stream termina cuando la sesion llega a un estado final o el cliente se va.
func (h *MatchHandler) StreamEvents(c *gin.Context) {
	sessionID := c.Param("id")
	if !h.sessionExists(c, sessionID) {
		return
	}
	ctx := c.Request.Context()
	updates, cancel, err := h.store.Subscribe(ctx, sessionID)
	if err != nil {
		h.logger.Error("subscribe failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not subscribe"})
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("state", h.view(state))
			c.Writer.Flush()
			if isFinal(state) {
				return
			}
		}
	}
}

func isFinal(state domain.SessionState) bool {
	if state.Error != "" {
		return true
	}
	return state.Result != nil && state.Secondary.State != domain.SecondaryInProgress
}

func (h *MatchHandler) sessionExists(c *gin.Context, sessionID string) bool {
	_, ok := h.loadStateByID(c, sessionID)
	return ok
}

func (h *MatchHandler) loadState(c *gin.Context) (domain.SessionState, bool) {
	return h.loadStateByID(c, c.Param("id"))
}

func (h *MatchHandler) loadStateByID(c *gin.Context, sessionID string) (domain.SessionState, bool) {
	state, err := h.store.Get(c.Request.Context(), sessionID)
	if errors.Is(err, staging.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return domain.SessionState{}, false
	}
	if err != nil {
		h.logger.Error("load session failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return domain.SessionState{}, false
	}
	return state, true
}

func (h *MatchHandler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}
	h.logger.Error("match request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
