package evidence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/confidence"
	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/emission"
	"greencredit/greenscore-backend/internal/engine/pipeline"
	"greencredit/greenscore-backend/internal/engine/score"
	"greencredit/greenscore-backend/internal/engine/sector"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSubmission(ctx context.Context, submission *Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockRepository) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Submission), args.Error(1)
}

func (m *MockRepository) UpdateSubmissionResult(ctx context.Context, submission *Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockRepository) ListUserSubmissions(ctx context.Context, userID string, limit int) ([]*Submission, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]*Submission), args.Error(1)
}

func (m *MockRepository) GetUserStats(ctx context.Context, userID string, vendor string, amountKES float64) (*UserStats, error) {
	args := m.Called(ctx, userID, vendor, amountKES)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*UserStats), args.Error(1)
}

type MockScoreRecorder struct {
	mock.Mock
}

func (m *MockScoreRecorder) RecordScore(ctx context.Context, result score.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

type MockCreditRecorder struct {
	mock.Mock
}

func (m *MockCreditRecorder) RecordCredits(ctx context.Context, creditList []credits.Credit) error {
	args := m.Called(ctx, creditList)
	return args.Error(0)
}

type MockReviewOpener struct {
	mock.Mock
}

func (m *MockReviewOpener) OpenCase(ctx context.Context, userID, evidenceID string, assessment confidence.Assessment) (string, error) {
	args := m.Called(ctx, userID, evidenceID, assessment)
	return args.String(0), args.Error(1)
}

func newTestService(repo *MockRepository, scores *MockScoreRecorder, creditStore *MockCreditRecorder, reviews *MockReviewOpener) *Service {
	logger := zap.NewNop()
	orchestrator := pipeline.NewOrchestrator(
		emission.NewCalculator(nil, logger),
		score.NewComputer(sector.NewService(logger), logger),
		credits.NewAggregator(logger),
		confidence.NewManager(logger),
		nil,
		logger,
	)
	return NewService(repo, orchestrator, scores, creditStore, reviews, nil, logger)
}

func establishedUserStats() *UserStats {
	return &UserStats{
		AccountAgeDays:      400,
		TotalSubmissions:    12,
		ApprovedSubmissions: 11,
		PhoneVerified:       true,
		BusinessRegistered:  true,
	}
}

func TestProcess_CompletesAndRecords(t *testing.T) {
	repo := new(MockRepository)
	scores := new(MockScoreRecorder)
	creditStore := new(MockCreditRecorder)
	reviews := new(MockReviewOpener)
	service := newTestService(repo, scores, creditStore, reviews)

	repo.On("CreateSubmission", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetUserStats", mock.Anything, "user-1", "SunKing", 160000.0).Return(establishedUserStats(), nil)
	repo.On("UpdateSubmissionResult", mock.Anything, mock.Anything).Return(nil)
	scores.On("RecordScore", mock.Anything, mock.Anything).Return(nil)
	creditStore.On("RecordCredits", mock.Anything, mock.Anything).Return(nil)
	reviews.On("OpenCase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("case-1", nil).Maybe()

	response, err := service.Process(context.Background(), "user-1", &ProcessRequest{
		Sector:     "farmer",
		ActionType: "solar pump",
		AmountKES:  160000,
		Vendor:     "SunKing",
		Labels:     []string{"solar"},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, response.EvidenceID)
	assert.InDelta(t, 207.0, response.CO2KgTotal, 0.001)
	assert.Greater(t, response.GreenScore, 0)
	assert.Equal(t, 3, response.CreditsCount)
	assert.NotEmpty(t, response.Explainers)

	repo.AssertCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
	repo.AssertCalled(t, "UpdateSubmissionResult", mock.Anything, mock.Anything)
	scores.AssertCalled(t, "RecordScore", mock.Anything, mock.Anything)
	creditStore.AssertCalled(t, "RecordCredits", mock.Anything, mock.Anything)
}

func TestProcess_OpensReviewCaseWhenRequired(t *testing.T) {
	repo := new(MockRepository)
	scores := new(MockScoreRecorder)
	creditStore := new(MockCreditRecorder)
	reviews := new(MockReviewOpener)
	service := newTestService(repo, scores, creditStore, reviews)

	// Brand-new user with a burst of submissions trips the fraud and
	// credibility checks.
	stats := &UserStats{
		AccountAgeDays:     1,
		SubmissionsLast24h: 8,
		SimilarSubmissions: 5,
	}

	repo.On("CreateSubmission", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetUserStats", mock.Anything, "user-2", "", 160000.0).Return(stats, nil)
	repo.On("UpdateSubmissionResult", mock.Anything, mock.MatchedBy(func(s *Submission) bool {
		return s.Status == StatusReviewPending && s.ReviewCaseID != nil
	})).Return(nil)
	scores.On("RecordScore", mock.Anything, mock.Anything).Return(nil)
	creditStore.On("RecordCredits", mock.Anything, mock.Anything).Return(nil).Maybe()
	reviews.On("OpenCase", mock.Anything, "user-2", mock.Anything, mock.Anything).Return("case-42", nil)

	response, err := service.Process(context.Background(), "user-2", &ProcessRequest{
		Sector:     "farmer",
		ActionType: "solar pump",
		AmountKES:  160000,
	})

	require.NoError(t, err)
	assert.True(t, response.ReviewRequired)
	assert.Equal(t, "case-42", response.ReviewCaseID)
	assert.Equal(t, string(StatusReviewPending), response.Status)
	reviews.AssertCalled(t, "OpenCase", mock.Anything, "user-2", mock.Anything, mock.Anything)
}

func TestProcess_UserStatsFailureUsesNeutralHistory(t *testing.T) {
	repo := new(MockRepository)
	scores := new(MockScoreRecorder)
	creditStore := new(MockCreditRecorder)
	reviews := new(MockReviewOpener)
	service := newTestService(repo, scores, creditStore, reviews)

	repo.On("CreateSubmission", mock.Anything, mock.Anything).Return(nil)
	repo.On("GetUserStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError)
	repo.On("UpdateSubmissionResult", mock.Anything, mock.Anything).Return(nil)
	scores.On("RecordScore", mock.Anything, mock.Anything).Return(nil)
	creditStore.On("RecordCredits", mock.Anything, mock.Anything).Return(nil).Maybe()
	reviews.On("OpenCase", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("case-1", nil).Maybe()

	response, err := service.Process(context.Background(), "user-3", &ProcessRequest{
		Sector:     "salon",
		ActionType: "led bulbs",
		AmountKES:  2000,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, response.EvidenceID)
}

func TestStatus_RejectsOtherUsers(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo, new(MockScoreRecorder), new(MockCreditRecorder), new(MockReviewOpener))

	id := uuid.New()
	repo.On("GetSubmission", mock.Anything, id).Return(&Submission{ID: id, UserID: "owner"}, nil)

	_, err := service.Status(context.Background(), "someone-else", id)
	assert.Error(t, err)

	submission, err := service.Status(context.Background(), "owner", id)
	require.NoError(t, err)
	assert.Equal(t, id, submission.ID)
}
