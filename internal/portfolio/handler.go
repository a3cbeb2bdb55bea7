package portfolio

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/auth"
)

// Handler handles HTTP requests for carbon credit portfolios
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the carbon credit routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/carbon-credits/portfolio", h.getPortfolio)
	router.GET("/carbon-credits/recommendations", h.getRecommendations)
}

func (h *Handler) getPortfolio(c *gin.Context) {
	userID := auth.UserID(c)

	portfolio, err := h.service.Portfolio(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load portfolio", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

func (h *Handler) getRecommendations(c *gin.Context) {
	userID := auth.UserID(c)

	recommendation, err := h.service.Recommendations(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to build recommendations", zap.Error(err), zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build recommendations"})
		return
	}

	c.JSON(http.StatusOK, recommendation)
}
