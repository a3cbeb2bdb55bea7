package review

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/auth"
)

// Handler handles HTTP requests for the review queue
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new review handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the admin review routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/review-queue", h.listQueue)
	router.GET("/review-queue/summary", h.queueSummary)
	router.GET("/review/:caseID", h.getCase)
	router.POST("/review/:caseID/decision", h.decideCase)
}

func (h *Handler) listQueue(c *gin.Context) {
	var filters QueueFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	cases, err := h.service.Queue(c.Request.Context(), &filters)
	if err != nil {
		h.logger.Error("failed to list review queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list review queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"count": len(cases),
	})
}

func (h *Handler) queueSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to summarise review queue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to summarise review queue"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getCase(c *gin.Context) {
	reviewCase, err := h.service.GetCase(c.Request.Context(), c.Param("caseID"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review case not found"})
			return
		}
		h.logger.Error("failed to get review case", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get review case"})
		return
	}

	c.JSON(http.StatusOK, reviewCase)
}

func (h *Handler) decideCase(c *gin.Context) {
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	reviewerID := auth.UserID(c)
	reviewCase, err := h.service.Decide(c.Request.Context(), c.Param("caseID"), reviewerID, &req)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "not found"):
			c.JSON(http.StatusNotFound, gin.H{"error": "Review case not found"})
		case strings.Contains(err.Error(), "invalid decision"),
			strings.Contains(err.Error(), "already decided"):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("failed to decide review case", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decide review case"})
		}
		return
	}

	c.JSON(http.StatusOK, reviewCase)
}
