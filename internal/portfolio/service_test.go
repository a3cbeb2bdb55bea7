package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/credits"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertCredits(ctx context.Context, records []*CreditRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID string) ([]*CreditRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CreditRecord), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status string) ([]*CreditRecord, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CreditRecord), args.Error(1)
}

func (m *MockRepository) MarkPooled(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockRepository) InsertPoolRuns(ctx context.Context, runs []*PoolRun) error {
	args := m.Called(ctx, runs)
	return args.Error(0)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, credits.NewAggregator(zap.NewNop()), zap.NewNop())
}

func TestRecordCredits(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("InsertCredits", mock.Anything, mock.MatchedBy(func(records []*CreditRecord) bool {
		return len(records) == 2 &&
			records[0].Standard == credits.StandardVCS &&
			records[0].UserID == "user-1" &&
			records[1].Standard == credits.StandardGoldStandard
	})).Return(nil)

	err := service.RecordCredits(context.Background(), []credits.Credit{
		{ID: uuid.New(), UserID: "user-1", Standard: credits.StandardVCS, TonnesCO2: 8.5, NetValueUSD: 52},
		{ID: uuid.New(), UserID: "user-1", Standard: credits.StandardGoldStandard, TonnesCO2: 8.0, NetValueUSD: 69},
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPortfolio_Aggregates(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("ListByUser", mock.Anything, "user-1").Return([]*CreditRecord{
		{Standard: credits.StandardVCS, TonnesCO2: 8.5, NetValueUSD: 52, Status: credits.StatusEligible},
		{Standard: credits.StandardGoldStandard, TonnesCO2: 8.0, NetValueUSD: 69, Status: credits.StatusPoolingEligible},
		{Standard: credits.StandardVCS, TonnesCO2: 1.2, NetValueUSD: 7.5, Status: credits.StatusPendingVerification},
	}, nil)

	portfolio, err := service.Portfolio(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, 3, portfolio.TotalCredits)
	assert.InDelta(t, 17.7, portfolio.TotalTonnesCO2, 1e-9)
	assert.InDelta(t, 128.5, portfolio.TotalNetValueUSD, 1e-9)
	assert.Equal(t, 1, portfolio.EligibleCount)
	assert.Equal(t, 1, portfolio.PoolingCount)
	assert.Equal(t, 1, portfolio.PendingCount)
	assert.Equal(t, 2, portfolio.StandardBreakdown[credits.StandardVCS])
}

func TestRecommendations_PrefersBestValuePerTonne(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	issuance := time.Now().AddDate(0, 6, 0)
	repo.On("ListByUser", mock.Anything, "user-1").Return([]*CreditRecord{
		{Standard: credits.StandardVCS, TonnesCO2: 8.5, NetValueUSD: 52, Status: credits.StatusEligible,
			Approach: credits.ApproachIndividual, ProjectLifetimeYears: 5, EstimatedIssuance: issuance},
		{Standard: credits.StandardGoldStandard, TonnesCO2: 8.0, NetValueUSD: 69, Status: credits.StatusEligible,
			Approach: credits.ApproachIndividual, ProjectLifetimeYears: 5, EstimatedIssuance: issuance},
	}, nil)

	rec, err := service.Recommendations(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, credits.StandardGoldStandard, rec.RecommendedStandard)
	assert.Equal(t, credits.ApproachIndividual, rec.Approach)
	assert.Equal(t, 13.8, rec.EstimatedAnnualValue)
	assert.Contains(t, rec.NextSteps[0], "individual project verification")
}

func TestRecommendations_NoCredits(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("ListByUser", mock.Anything, "user-2").Return([]*CreditRecord{}, nil)

	rec, err := service.Recommendations(context.Background(), "user-2")

	assert.NoError(t, err)
	assert.Equal(t, "increase_impact", rec.Recommendation)
	assert.Equal(t, 100.0, rec.MinAnnualCO2NeededKg)
}

func TestRunPooling_GroupsByStandardAndMarksPooled(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	first := uuid.New()
	second := uuid.New()
	repo.On("ListByStatus", mock.Anything, credits.StatusPoolingEligible).Return([]*CreditRecord{
		{ID: first, UserID: "user-1", Standard: credits.StandardVCS, TonnesCO2: 0.4,
			GrossValueUSD: 4.8, NetValueUSD: 3.9, Status: credits.StatusPoolingEligible,
			Approach: credits.ApproachPooled, Sector: "salon"},
		{ID: second, UserID: "user-2", Standard: credits.StandardVCS, TonnesCO2: 0.4,
			GrossValueUSD: 4.8, NetValueUSD: 3.9, Status: credits.StatusPoolingEligible,
			Approach: credits.ApproachPooled, Sector: "farmer"},
	}, nil)
	repo.On("InsertPoolRuns", mock.Anything, mock.MatchedBy(func(runs []*PoolRun) bool {
		return len(runs) == 1 &&
			runs[0].PoolName == "Kenya_SME_Pool_VCS" &&
			runs[0].ParticipantCount == 2
	})).Return(nil)
	repo.On("MarkPooled", mock.Anything, []string{first.String(), second.String()}).Return(nil)

	result, err := service.RunPooling(context.Background(), "Kenya_SME_Pool")

	assert.NoError(t, err)
	assert.Equal(t, "pooled", result.Status)
	assert.Equal(t, 2, result.TotalParticipants)
	pool := result.Pools[credits.StandardVCS]
	assert.Equal(t, "Kenya_SME_Pool_VCS", pool.PoolName)
	assert.Equal(t, 2, pool.ParticipantCount)
	assert.InDelta(t, 0.8, pool.TotalTonnesCO2, 1e-9)
	assert.InDelta(t, 7.8, pool.TotalNetValueUSD, 1e-9)
	repo.AssertExpectations(t)
}

func TestRunPooling_NothingEligible(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("ListByStatus", mock.Anything, credits.StatusPoolingEligible).Return([]*CreditRecord{}, nil)

	result, err := service.RunPooling(context.Background(), "Kenya_SME_Pool")

	assert.NoError(t, err)
	assert.Equal(t, "no_eligible_credits", result.Status)
	repo.AssertNotCalled(t, "InsertPoolRuns")
	repo.AssertNotCalled(t, "MarkPooled")
}
