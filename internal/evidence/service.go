package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/confidence"
	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/pipeline"
	"greencredit/greenscore-backend/internal/engine/score"
	"greencredit/greenscore-backend/pkg/geospatial"
)

// Runner executes one scoring pipeline run
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

// ScoreRecorder persists computed scores
type ScoreRecorder interface {
	RecordScore(ctx context.Context, result score.Result) error
}

// CreditRecorder persists computed carbon credits
type CreditRecorder interface {
	RecordCredits(ctx context.Context, creditList []credits.Credit) error
}

// ReviewOpener opens a human review case and returns its case id
type ReviewOpener interface {
	OpenCase(ctx context.Context, userID, evidenceID string, assessment confidence.Assessment) (string, error)
}

// SectorStatsProvider supplies sector score statistics for consistency
// checks
type SectorStatsProvider interface {
	SectorContext(ctx context.Context, sector string) (confidence.SectorContext, error)
}

// Service provides business logic for evidence processing
type Service struct {
	repo        Repository
	runner      Runner
	scores      ScoreRecorder
	creditStore CreditRecorder
	reviews     ReviewOpener
	sectorStats SectorStatsProvider
	logger      *zap.Logger
}

// NewService creates a new evidence service
func NewService(
	repo Repository,
	runner Runner,
	scores ScoreRecorder,
	creditStore CreditRecorder,
	reviews ReviewOpener,
	sectorStats SectorStatsProvider,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:        repo,
		runner:      runner,
		scores:      scores,
		creditStore: creditStore,
		reviews:     reviews,
		sectorStats: sectorStats,
		logger:      logger,
	}
}

// Process runs the scoring pipeline for one piece of evidence and
// persists the outcome. Scoring itself never fails; only persistence of
// the submission record can return an error.
func (s *Service) Process(ctx context.Context, userID string, req *ProcessRequest) (*ProcessResponse, error) {
	region := req.Region
	if region == "" {
		region = "Kenya"
	}

	submission := &Submission{
		ID:         uuid.New(),
		UserID:     userID,
		Sector:     req.Sector,
		Region:     region,
		ActionType: req.ActionType,
		AmountKES:  req.AmountKES,
		Vendor:     req.Vendor,
		Items:      req.Items,
		Labels:     req.Labels,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Status:     StatusProcessing,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}

	history := s.buildUserHistory(ctx, userID, req)
	sectorCtx := s.buildSectorContext(ctx, req.Sector)

	result := s.runner.Run(ctx, pipeline.Request{
		EvidenceID:           submission.ID.String(),
		UserID:               userID,
		Sector:               req.Sector,
		Region:               region,
		ActionType:           req.ActionType,
		AmountKES:            req.AmountKES,
		Signals:              score.EvidenceSignals{Vendor: req.Vendor, Items: req.Items, Labels: req.Labels},
		ProjectLifetimeYears: req.ProjectLifetimeYears,
		History:              history,
		SectorContext:        sectorCtx,
	})

	if err := s.scores.RecordScore(ctx, result.Score); err != nil {
		s.logger.Error("failed to record score",
			zap.String("evidence_id", submission.ID.String()), zap.Error(err))
	}
	if len(result.Credits) > 0 {
		if err := s.creditStore.RecordCredits(ctx, result.Credits); err != nil {
			s.logger.Error("failed to record credits",
				zap.String("evidence_id", submission.ID.String()), zap.Error(err))
		}
	}

	var reviewCaseID string
	if result.Assessment.ReviewRequired {
		caseID, err := s.reviews.OpenCase(ctx, userID, submission.ID.String(), result.Assessment)
		if err != nil {
			s.logger.Error("failed to open review case",
				zap.String("evidence_id", submission.ID.String()), zap.Error(err))
		} else {
			reviewCaseID = caseID
		}
	}

	s.finalizeSubmission(ctx, submission, result, reviewCaseID)

	response := &ProcessResponse{
		EvidenceID:     submission.ID.String(),
		Status:         string(submission.Status),
		GreenScore:     result.Score.GreenScore,
		CO2KgTotal:     result.Emission.CO2KgTotal,
		Confidence:     result.Assessment.FinalConfidence,
		CreditsCount:   len(result.Credits),
		ReviewRequired: result.Assessment.ReviewRequired,
		ReviewCaseID:   reviewCaseID,
		Explainers:     result.Score.Explainers,
		Actions:        result.Score.Actions,
		Summary:        result.Summary,
	}

	return response, nil
}

// Status returns the processing status of one submission. Users can
// only see their own submissions.
func (s *Service) Status(ctx context.Context, userID string, id uuid.UUID) (*Submission, error) {
	submission, err := s.repo.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if submission.UserID != userID {
		return nil, fmt.Errorf("submission not found")
	}
	return submission, nil
}

// History returns recent submissions for a user.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*Submission, error) {
	return s.repo.ListUserSubmissions(ctx, userID, limit)
}

func (s *Service) buildUserHistory(ctx context.Context, userID string, req *ProcessRequest) confidence.UserHistory {
	stats, err := s.repo.GetUserStats(ctx, userID, req.Vendor, req.AmountKES)
	if err != nil {
		s.logger.Warn("user stats unavailable, using neutral history",
			zap.String("user_id", userID), zap.Error(err))
		return confidence.DefaultUserHistory()
	}

	approvalRate := 0.5
	if stats.TotalSubmissions > 0 {
		approvalRate = float64(stats.ApprovedSubmissions) / float64(stats.TotalSubmissions)
	}

	history := confidence.UserHistory{
		AccountAgeDays:       stats.AccountAgeDays,
		PreviousSubmissions:  stats.TotalSubmissions,
		ApprovalRate:         approvalRate,
		FraudFlags:           stats.FraudFlags,
		PhoneVerified:        stats.PhoneVerified,
		BusinessRegistered:   stats.BusinessRegistered,
		SubmissionsLast24h:   stats.SubmissionsLast24h,
		SimilarEvidenceCount: stats.SimilarSubmissions,
	}

	if req.Latitude != nil && req.Longitude != nil &&
		stats.BusinessLatitude != nil && stats.BusinessLongitude != nil {
		business := geospatial.Point(*stats.BusinessLongitude, *stats.BusinessLatitude)
		evidence := geospatial.Point(*req.Longitude, *req.Latitude)
		history.LocationInconsistency = !geospatial.IsConsistent(business, evidence)
	}

	return history
}

func (s *Service) buildSectorContext(ctx context.Context, sector string) confidence.SectorContext {
	if s.sectorStats == nil {
		return confidence.DefaultSectorContext()
	}
	sectorCtx, err := s.sectorStats.SectorContext(ctx, sector)
	if err != nil {
		s.logger.Warn("sector stats unavailable, using defaults",
			zap.String("sector", sector), zap.Error(err))
		return confidence.DefaultSectorContext()
	}
	return sectorCtx
}

func (s *Service) finalizeSubmission(ctx context.Context, submission *Submission, result pipeline.Result, reviewCaseID string) {
	now := time.Now()
	greenScore := result.Score.GreenScore
	co2 := result.Emission.CO2KgTotal
	conf := result.Assessment.FinalConfidence

	submission.Status = StatusCompleted
	if result.Assessment.ReviewRequired {
		submission.Status = StatusReviewPending
	}
	submission.GreenScore = &greenScore
	submission.CO2KgTotal = &co2
	submission.Confidence = &conf
	submission.ProcessedAt = &now
	if reviewCaseID != "" {
		submission.ReviewCaseID = &reviewCaseID
	}
	submission.Result = JSONB{
		"greenscore":      result.Score.GreenScore,
		"subscores":       result.Score.Subscores,
		"co2_kg_total":    result.Emission.CO2KgTotal,
		"confidence":      result.Assessment.FinalConfidence,
		"components":      result.Assessment.Components,
		"review_reasons":  result.Assessment.ReasonStrings(),
		"review_priority": result.Assessment.ReviewPriority,
		"auto_approve":    result.Assessment.AutoApprove,
		"auto_reject":     result.Assessment.AutoReject,
		"credits_count":   len(result.Credits),
		"summary":         result.Summary,
	}

	if err := s.repo.UpdateSubmissionResult(ctx, submission); err != nil {
		s.logger.Error("failed to persist submission result",
			zap.String("evidence_id", submission.ID.String()), zap.Error(err))
	}
}
