package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchmaker/internal/domain"
	"matchmaker/internal/service"
)

// ProfileHandler agrupa el scraper de perfiles y las respuestas del onboarding.
type ProfileHandler struct {
	logger   *zap.Logger
	profiles *service.ProfileService
}

func NewProfileHandler(logger *zap.Logger, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{logger: logger, profiles: profiles}
}

// Scrape maneja GET /profiles/scrape?linkedin_url=.
func (h *ProfileHandler) Scrape(c *gin.Context) {
	profile, err := h.profiles.ScrapeProfile(c.Request.Context(), c.Query("linkedin_url"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// SaveAnswers maneja PUT /profiles/:user_id/answers.
func (h *ProfileHandler) SaveAnswers(c *gin.Context) {
	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	answers, err := h.profiles.SaveAnswers(c.Request.Context(), c.Param("user_id"), profile)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

// GetAnswers maneja GET /profiles/:user_id/answers.
func (h *ProfileHandler) GetAnswers(c *gin.Context) {
	answers, err := h.profiles.GetAnswers(c.Request.Context(), c.Param("user_id"))
	if errors.Is(err, service.ErrAnswersNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "answers not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (h *ProfileHandler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrUpstreamFatal):
		h.logger.Warn("profile upstream failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "profile service unavailable"})
	default:
		h.logger.Error("profile request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
