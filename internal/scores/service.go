package scores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/confidence"
	"greencredit/greenscore-backend/internal/engine/score"
	"greencredit/greenscore-backend/internal/engine/sector"
)

// Service provides business logic for score history and analytics
type Service struct {
	repo      Repository
	baselines *sector.Service
	logger    *zap.Logger
}

// NewService creates a new scores service
func NewService(repo Repository, baselines *sector.Service, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		baselines: baselines,
		logger:    logger,
	}
}

// RecordScore persists one pipeline score result.
func (s *Service) RecordScore(ctx context.Context, result score.Result) error {
	subscores := make(JSONB, len(result.Subscores))
	for pillar, v := range result.Subscores {
		subscores[pillar] = v
	}

	record := &Record{
		ID:             uuid.New(),
		UserID:         result.UserID,
		EvidenceID:     result.EvidenceID,
		GreenScore:     result.GreenScore,
		Subscores:      subscores,
		CO2SavedTonnes: result.CO2SavedTonnes,
		Confidence:     result.Confidence,
		Explainers:     result.Explainers,
		Actions:        result.Actions,
		Provenance:     JSONB(result.Provenance),
		CreatedAt:      time.Now(),
	}

	if err := s.repo.InsertScore(ctx, record); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}

	return nil
}

// Current returns the user's latest score.
func (s *Service) Current(ctx context.Context, userID string) (*Record, error) {
	return s.repo.GetLatestScore(ctx, userID)
}

// History returns the user's score history with trend analysis.
func (s *Service) History(ctx context.Context, userID string, limit int) (*HistoryResponse, error) {
	records, err := s.repo.ListScores(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	response := &HistoryResponse{
		Scores: records,
		Trend:  TrendStable,
	}
	if len(records) == 0 {
		return response, nil
	}

	response.CurrentScore = records[0].GreenScore
	for _, r := range records {
		if r.GreenScore > response.BestScore {
			response.BestScore = r.GreenScore
		}
		response.TotalCO2 += r.CO2SavedTonnes
	}
	response.Trend = calculateTrend(records)

	return response, nil
}

// SectorAnalytics compares a sector's live statistics against its
// reference baseline.
func (s *Service) SectorAnalytics(ctx context.Context, sect string) (map[string]interface{}, error) {
	stats, err := s.repo.GetSectorStats(ctx, sect)
	if err != nil {
		return nil, err
	}

	baseline := s.baselines.GetBaseline(sect, "Kenya")

	return map[string]interface{}{
		"sector":   sect,
		"stats":    stats,
		"baseline": baseline,
		"weights":  s.baselines.GetSectorWeights(sect),
	}, nil
}

// SectorContext supplies the confidence manager's sector statistics.
// Sectors with too few scored users fall back to the neutral defaults.
func (s *Service) SectorContext(ctx context.Context, sect string) (confidence.SectorContext, error) {
	stats, err := s.repo.GetSectorStats(ctx, sect)
	if err != nil {
		return confidence.SectorContext{}, err
	}
	if stats.UserCount < 10 {
		return confidence.DefaultSectorContext(), nil
	}

	return confidence.SectorContext{
		AverageGreenScore:  stats.AverageGreenScore,
		StdGreenScore:      stats.StdGreenScore,
		AverageCreditValue: stats.AverageCreditUSD,
	}, nil
}

// calculateTrend compares the average of the newer half of the history
// against the older half. A five point swing marks a direction.
func calculateTrend(records []*Record) string {
	if len(records) < 4 {
		return TrendStable
	}

	half := len(records) / 2
	recent, older := 0.0, 0.0
	for _, r := range records[:half] {
		recent += float64(r.GreenScore)
	}
	for _, r := range records[half:] {
		older += float64(r.GreenScore)
	}
	recent /= float64(half)
	older /= float64(len(records) - half)

	switch {
	case recent > older+5:
		return TrendImproving
	case recent < older-5:
		return TrendDeclining
	default:
		return TrendStable
	}
}
