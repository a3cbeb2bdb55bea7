package evidence

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/auth"
)

// Handler handles HTTP requests for evidence processing
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new evidence handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers evidence routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/evidence/process", h.processEvidence)
	router.GET("/processing-status/:id", h.getProcessingStatus)
	router.GET("/evidence/history", h.getHistory)
}

func (h *Handler) processEvidence(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	userID := auth.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	response, err := h.service.Process(c.Request.Context(), userID, &req)
	if err != nil {
		h.logger.Error("Failed to process evidence", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process evidence"})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) getProcessingStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid evidence ID"})
		return
	}

	submission, err := h.service.Status(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"evidence_id":    submission.ID,
		"status":         submission.Status,
		"greenscore":     submission.GreenScore,
		"co2_kg_total":   submission.CO2KgTotal,
		"confidence":     submission.Confidence,
		"review_case_id": submission.ReviewCaseID,
		"created_at":     submission.CreatedAt,
		"processed_at":   submission.ProcessedAt,
	})
}

func (h *Handler) getHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	submissions, err := h.service.History(c.Request.Context(), auth.UserID(c), limit)
	if err != nil {
		h.logger.Error("Failed to list submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions, "count": len(submissions)})
}
