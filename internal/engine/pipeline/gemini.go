package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const summarySystemInstruction = `You write short plain-language summaries of environmental
impact results for microfinance loan officers in Kenya. You are given the computed numbers
and must not change, recompute or invent any of them. Respond with JSON of the form
{"summary": "..."} where the summary is at most three sentences.`

// AssistantConfig configures the optional Gemini narrative layer.
type AssistantConfig struct {
	APIKey     string
	ModelName  string
	MaxRetries int
	RetryDelay time.Duration
}

// Assistant turns a finished pipeline result into a short narrative for
// loan officers. It is strictly presentational: all numbers come from
// the deterministic stages and are passed through verbatim.
type Assistant struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	logger     *zap.Logger
	maxRetries int
	retryDelay time.Duration
}

// NewAssistant creates the Gemini-backed summarizer. Returns (nil, nil)
// when no API key is configured so callers can wire it unconditionally.
func NewAssistant(cfg AssistantConfig, logger *zap.Logger) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-2.0-flash-exp"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(summarySystemInstruction)},
	}
	model.ResponseMIMEType = "application/json"
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     genai.Ptr[float32](0.3),
		TopP:            genai.Ptr[float32](0.9),
		MaxOutputTokens: genai.Ptr[int32](300),
	}

	logger.Info("Gemini summarizer initialized", zap.String("model", cfg.ModelName))

	return &Assistant{
		client:     client,
		model:      model,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Close releases the underlying client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// Summarize produces a narrative for the given result.
func (a *Assistant) Summarize(ctx context.Context, result Result) (string, error) {
	prompt := buildSummaryPrompt(result)

	var lastErr error
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		if attempt > 0 {
			a.logger.Warn("Retrying Gemini request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", a.maxRetries))
			time.Sleep(a.retryDelay)
		}

		resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("gemini API error: %w", err)
			continue
		}

		if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = fmt.Errorf("empty response from gemini")
			continue
		}

		textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
		if !ok {
			lastErr = fmt.Errorf("unexpected response type from gemini")
			continue
		}

		cleanJSON := strings.TrimSpace(string(textPart))
		cleanJSON = strings.TrimPrefix(cleanJSON, "```json")
		cleanJSON = strings.TrimPrefix(cleanJSON, "```")
		cleanJSON = strings.TrimSuffix(cleanJSON, "```")
		cleanJSON = strings.TrimSpace(cleanJSON)

		var parsed summaryResponse
		if err := json.Unmarshal([]byte(cleanJSON), &parsed); err != nil {
			lastErr = fmt.Errorf("failed to parse gemini response: %w", err)
			continue
		}
		if parsed.Summary == "" {
			lastErr = fmt.Errorf("gemini returned an empty summary")
			continue
		}

		return parsed.Summary, nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", a.maxRetries, lastErr)
}

func buildSummaryPrompt(result Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "GreenScore: %d/100 (confidence %.2f)\n", result.Score.GreenScore, result.Score.Confidence)
	fmt.Fprintf(&b, "CO2 avoided: %.1f kg per year via %s\n", result.Emission.CO2KgTotal, result.Emission.Method)

	if len(result.Credits) > 0 {
		totalValue := 0.0
		totalTonnes := 0.0
		for _, c := range result.Credits {
			totalValue += c.NetValueUSD
			totalTonnes += c.TonnesCO2
		}
		fmt.Fprintf(&b, "Carbon credits: %.3f tonnes across %d standards, estimated net value $%.2f\n",
			totalTonnes, len(result.Credits), totalValue)
	} else {
		b.WriteString("Carbon credits: none (below additionality threshold)\n")
	}

	for _, e := range result.Score.Explainers {
		fmt.Fprintf(&b, "- %s\n", e)
	}

	b.WriteString("\nSummarize these results for a loan officer.")
	return b.String()
}
