package review

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/confidence"
)

// reviewDeadline is how long a pending case may sit before it counts as overdue.
const reviewDeadline = 24 * time.Hour

// Service manages the human review queue for flagged submissions
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new review service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// OpenCase creates a review case from a confidence assessment and returns its case ID.
func (s *Service) OpenCase(ctx context.Context, userID, evidenceID string, assessment confidence.Assessment) (string, error) {
	now := time.Now()
	caseID := fmt.Sprintf("review_%s_%s", evidenceID, now.Format("20060102_150405"))

	reasons, err := json.Marshal(assessment.ReviewReasons)
	if err != nil {
		return "", fmt.Errorf("failed to marshal review reasons: %w", err)
	}
	components, err := json.Marshal(assessment.Components)
	if err != nil {
		return "", fmt.Errorf("failed to marshal confidence components: %w", err)
	}

	reviewCase := &Case{
		CaseID:          caseID,
		UserID:          userID,
		EvidenceID:      evidenceID,
		Priority:        assessment.ReviewPriority,
		Reasons:         reasons,
		Components:      components,
		Confidence:      assessment.FinalConfidence,
		Status:          CaseStatusPending,
		Deadline:        now.Add(reviewDeadline),
		EscalationLevel: 1,
	}

	if err := s.repo.CreateCase(ctx, reviewCase); err != nil {
		return "", err
	}

	s.logger.Info("review case opened",
		zap.String("case_id", caseID),
		zap.String("user_id", userID),
		zap.String("priority", reviewCase.Priority),
		zap.Float64("confidence", assessment.FinalConfidence))

	return caseID, nil
}

// Queue lists open review cases, high priority and nearest deadline first.
func (s *Service) Queue(ctx context.Context, filters *QueueFilters) ([]*Case, error) {
	return s.repo.ListQueue(ctx, filters)
}

// GetCase fetches a single review case by its case ID.
func (s *Service) GetCase(ctx context.Context, caseID string) (*Case, error) {
	return s.repo.GetCase(ctx, caseID)
}

// Decide records a reviewer decision on an open case.
func (s *Service) Decide(ctx context.Context, caseID, reviewerID string, req *DecisionRequest) (*Case, error) {
	var status CaseStatus
	switch req.Decision {
	case DecisionApprove:
		status = CaseStatusApproved
	case DecisionReject:
		status = CaseStatusRejected
	case DecisionNeedsMoreInfo:
		status = CaseStatusNeedsMoreInfo
	default:
		return nil, fmt.Errorf("invalid decision: %s", req.Decision)
	}

	reviewCase, err := s.repo.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if reviewCase.Status == CaseStatusApproved || reviewCase.Status == CaseStatusRejected {
		return nil, fmt.Errorf("review case already decided")
	}

	now := time.Now()
	reviewCase.Status = status
	reviewCase.Decision = &req.Decision
	reviewCase.DecidedBy = &reviewerID
	reviewCase.DecidedAt = &now
	if req.Notes != "" {
		reviewCase.DecisionNotes = &req.Notes
	}

	if err := s.repo.UpdateCase(ctx, reviewCase); err != nil {
		return nil, err
	}

	s.logger.Info("review case decided",
		zap.String("case_id", caseID),
		zap.String("decision", req.Decision),
		zap.String("decided_by", reviewerID))

	return reviewCase, nil
}

// Summary returns aggregate queue statistics for the admin dashboard.
func (s *Service) Summary(ctx context.Context) (*QueueSummary, error) {
	return s.repo.GetQueueSummary(ctx)
}
