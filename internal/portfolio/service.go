package portfolio

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/credits"
)

// Service provides business logic for carbon credit portfolios
type Service struct {
	repo       Repository
	aggregator *credits.Aggregator
	logger     *zap.Logger
}

// NewService creates a new portfolio service
func NewService(repo Repository, aggregator *credits.Aggregator, logger *zap.Logger) *Service {
	return &Service{repo: repo, aggregator: aggregator, logger: logger}
}

// RecordCredits persists the credits produced by one pipeline run.
func (s *Service) RecordCredits(ctx context.Context, creditList []credits.Credit) error {
	records := make([]*CreditRecord, 0, len(creditList))
	for _, c := range creditList {
		records = append(records, toRecord(c))
	}
	return s.repo.InsertCredits(ctx, records)
}

// Portfolio summarises a user's carbon credit holdings.
func (s *Service) Portfolio(ctx context.Context, userID string) (*PortfolioResponse, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := &PortfolioResponse{
		UserID:            userID,
		Credits:           records,
		TotalCredits:      len(records),
		StandardBreakdown: make(map[string]int),
	}
	for _, r := range records {
		response.TotalTonnesCO2 += r.TonnesCO2
		response.TotalNetValueUSD += r.NetValueUSD
		response.StandardBreakdown[r.Standard]++
		switch r.Status {
		case credits.StatusEligible:
			response.EligibleCount++
		case credits.StatusPoolingEligible:
			response.PoolingCount++
		case credits.StatusPendingVerification:
			response.PendingCount++
		}
	}

	return response, nil
}

// Recommendations advises a user on their best registration strategy
// over their recorded credits.
func (s *Service) Recommendations(ctx context.Context, userID string) (credits.Recommendation, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return credits.Recommendation{}, err
	}

	creditList := make([]credits.Credit, 0, len(records))
	for _, r := range records {
		creditList = append(creditList, toCredit(r))
	}

	return s.aggregator.GetCreditRecommendations(creditList), nil
}

// RunPooling aggregates all pooling-eligible credits into per-standard
// pools. Invoked by the pooling worker.
func (s *Service) RunPooling(ctx context.Context, poolName string) (credits.PoolResult, error) {
	records, err := s.repo.ListByStatus(ctx, credits.StatusPoolingEligible)
	if err != nil {
		return credits.PoolResult{}, err
	}

	creditList := make([]credits.Credit, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		creditList = append(creditList, toCredit(r))
		ids = append(ids, r.ID.String())
	}

	result := s.aggregator.AggregatePoolCredits(creditList, poolName)
	if result.TotalParticipants == 0 {
		return result, nil
	}

	runs := make([]*PoolRun, 0, len(result.Pools))
	for standard, pool := range result.Pools {
		participants, err := json.Marshal(pool.Participants)
		if err != nil {
			return credits.PoolResult{}, fmt.Errorf("failed to marshal pool participants: %w", err)
		}
		runs = append(runs, &PoolRun{
			PoolName:         pool.PoolName,
			Standard:         standard,
			ParticipantCount: pool.ParticipantCount,
			TotalTonnesCO2:   pool.TotalTonnesCO2,
			TotalGrossUSD:    pool.TotalGrossValueUSD,
			TotalNetUSD:      pool.TotalNetValueUSD,
			Participants:     participants,
		})
	}
	if err := s.repo.InsertPoolRuns(ctx, runs); err != nil {
		return credits.PoolResult{}, err
	}

	if err := s.repo.MarkPooled(ctx, ids); err != nil {
		return credits.PoolResult{}, err
	}

	s.logger.Info("pooled carbon credits",
		zap.String("pool_name", poolName),
		zap.Int("participants", result.TotalParticipants),
		zap.Float64("total_tonnes", result.TotalTonnes),
		zap.Float64("total_value_usd", result.TotalValue))

	return result, nil
}

func toRecord(c credits.Credit) *CreditRecord {
	return &CreditRecord{
		ID:                    c.ID,
		UserID:                c.UserID,
		EvidenceID:            c.EvidenceID,
		Standard:              c.Standard,
		TonnesCO2:             c.TonnesCO2,
		AnnualTonnes:          c.AnnualTonnes,
		ProjectLifetimeYears:  c.ProjectLifetimeYears,
		BufferPercentage:      c.BufferPercentage,
		GrossValueUSD:         c.GrossValueUSD,
		NetValueUSD:           c.NetValueUSD,
		VerificationCostUSD:   c.VerificationCostUSD,
		PoolingFeeUSD:         c.PoolingFeeUSD,
		Status:                c.Status,
		Approach:              c.Approach,
		EstimatedIssuance:     c.EstimatedIssuance,
		Sector:                c.Sector,
		AdditionalityVerified: c.AdditionalityVerified,
		CreatedAt:             c.CreatedAt,
	}
}

func toCredit(r *CreditRecord) credits.Credit {
	return credits.Credit{
		ID:                    r.ID,
		UserID:                r.UserID,
		EvidenceID:            r.EvidenceID,
		Standard:              r.Standard,
		TonnesCO2:             r.TonnesCO2,
		AnnualTonnes:          r.AnnualTonnes,
		ProjectLifetimeYears:  r.ProjectLifetimeYears,
		BufferPercentage:      r.BufferPercentage,
		GrossValueUSD:         r.GrossValueUSD,
		NetValueUSD:           r.NetValueUSD,
		VerificationCostUSD:   r.VerificationCostUSD,
		PoolingFeeUSD:         r.PoolingFeeUSD,
		Status:                r.Status,
		Approach:              r.Approach,
		EstimatedIssuance:     r.EstimatedIssuance,
		Sector:                r.Sector,
		AdditionalityVerified: r.AdditionalityVerified,
		CreatedAt:             r.CreatedAt,
	}
}
