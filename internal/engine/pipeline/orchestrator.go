package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"greencredit/greenscore-backend/internal/engine/confidence"
	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/emission"
	"greencredit/greenscore-backend/internal/engine/score"
)

// Request carries everything a single scoring run needs. Features may
// be supplied directly from measured evidence; when nil they are
// estimated from the disbursed loan amount.
type Request struct {
	EvidenceID           string
	UserID               string
	Sector               string
	Region               string
	ActionType           string
	AmountKES            float64
	Features             *emission.Features
	Signals              score.EvidenceSignals
	ProjectLifetimeYears int
	History              confidence.UserHistory
	SectorContext        confidence.SectorContext
}

// Result is the complete output of one run. Summary is an optional
// narrative produced after the fact and carries no numeric authority.
type Result struct {
	Emission       emission.Result         `json:"emission"`
	Score          score.Result            `json:"score"`
	Credits        []credits.Credit        `json:"credits"`
	Assessment     confidence.Assessment   `json:"assessment"`
	ProcessingTime time.Duration           `json:"-"`
	Summary        string                  `json:"summary,omitempty"`
}

// Orchestrator runs the scoring stages in order. Every stage degrades
// to a fallback rather than failing, so Run always returns a Result.
type Orchestrator struct {
	calculator *emission.Calculator
	computer   *score.Computer
	aggregator *credits.Aggregator
	manager    *confidence.Manager
	assistant  *Assistant
	logger     *zap.Logger
}

// NewOrchestrator wires the stages together. assistant may be nil.
func NewOrchestrator(
	calculator *emission.Calculator,
	computer *score.Computer,
	aggregator *credits.Aggregator,
	manager *confidence.Manager,
	assistant *Assistant,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		calculator: calculator,
		computer:   computer,
		aggregator: aggregator,
		manager:    manager,
		assistant:  assistant,
		logger:     logger,
	}
}

// Run executes emission calculation, scoring, credit aggregation and
// confidence assessment for one piece of evidence. Identical requests
// produce identical numeric results.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	start := time.Now()

	features := o.resolveFeatures(req)

	emissionResult := o.calculator.Calculate(ctx, req.EvidenceID, req.Sector, req.Region, features)

	userMetrics := score.EstimateUserMetrics(emissionResult, req.Sector, req.Signals)
	scoreResult := o.computer.ComputeScore(req.UserID, req.EvidenceID, req.Sector, emissionResult, userMetrics, req.Region)

	creditList := o.aggregator.CalculateCredits(req.UserID, req.EvidenceID, emissionResult, scoreResult, req.Sector, req.ProjectLifetimeYears)

	elapsed := time.Since(start)

	history := req.History
	if history == (confidence.UserHistory{}) {
		history = confidence.DefaultUserHistory()
	}
	sectorCtx := req.SectorContext
	if sectorCtx == (confidence.SectorContext{}) {
		sectorCtx = confidence.DefaultSectorContext()
	}

	assessment := o.manager.Evaluate(confidence.Outcome{
		Confidence:     scoreResult.Confidence,
		Score:          &scoreResult,
		Credits:        creditList,
		ProcessingTime: elapsed,
	}, history, sectorCtx)

	result := Result{
		Emission:       emissionResult,
		Score:          scoreResult,
		Credits:        creditList,
		Assessment:     assessment,
		ProcessingTime: time.Since(start),
	}

	if o.assistant != nil {
		summary, err := o.assistant.Summarize(ctx, result)
		if err != nil {
			o.logger.Warn("summary generation failed, continuing without it",
				zap.String("evidence_id", req.EvidenceID),
				zap.Error(err))
		} else {
			result.Summary = summary
		}
	}

	o.logger.Info("scoring pipeline completed",
		zap.String("evidence_id", req.EvidenceID),
		zap.String("user_id", req.UserID),
		zap.Int("greenscore", scoreResult.GreenScore),
		zap.Float64("co2_kg", emissionResult.CO2KgTotal),
		zap.Int("credits", len(creditList)),
		zap.Float64("confidence", assessment.FinalConfidence),
		zap.Duration("elapsed", result.ProcessingTime))

	return result
}

func (o *Orchestrator) resolveFeatures(req Request) emission.Features {
	if req.Features != nil {
		return *req.Features
	}
	return emission.EstimateFeaturesFromAmount(req.AmountKES, req.Sector, req.ActionType)
}
