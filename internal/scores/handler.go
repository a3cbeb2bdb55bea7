package scores

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/auth"
)

// Handler handles HTTP requests for scores and analytics
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new scores handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers score routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/greenscore/current", h.getCurrentScore)
	router.GET("/greenscore/history", h.getScoreHistory)
	router.GET("/analytics/sector/:sector", h.getSectorAnalytics)
}

func (h *Handler) getCurrentScore(c *gin.Context) {
	record, err := h.service.Current(c.Request.Context(), auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No score found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) getScoreHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.service.History(c.Request.Context(), auth.UserID(c), limit)
	if err != nil {
		h.logger.Error("Failed to get score history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get score history"})
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) getSectorAnalytics(c *gin.Context) {
	analytics, err := h.service.SectorAnalytics(c.Request.Context(), c.Param("sector"))
	if err != nil {
		h.logger.Error("Failed to get sector analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sector analytics"})
		return
	}

	c.JSON(http.StatusOK, analytics)
}
