package httpserver

import (
	"fmt"
	"net/http"

	"github.com/davidbz/howl/internal/domain"
)

const (
	maxPromptLength = 32000
	maxTokensLimit  = 32000
	minTemperature  = 0.0
	maxTemperature  = 2.0

	defaultTemperature = 0.7

	maxTickerLength = 10
)

// completionRequest is the wire form of a completion request. Temperature is
// a pointer so an omitted field can be told apart from an explicit zero.
type completionRequest struct {
	Model       string            `json:"model"`
	Prompt      string            `json:"prompt"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature *float64          `json:"temperature"`
	Provider    domain.AIProvider `json:"provider"`
	Stream      bool              `json:"stream"`
}

// validate checks field ranges and converts to the domain request with the
// temperature default applied. Model existence is not checked here; the
// gateway resolves the model and reports MODEL_NOT_FOUND itself.
func (r *completionRequest) validate() (*domain.CompletionRequest, *domain.APIError) {
	if r.Model == "" {
		return nil, domain.NewAPIError(http.StatusBadRequest, "model is required", "VALIDATION_ERROR")
	}

	if r.Prompt == "" {
		return nil, domain.NewAPIError(http.StatusBadRequest, "prompt is required", "VALIDATION_ERROR")
	}
	if len(r.Prompt) > maxPromptLength {
		return nil, domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("prompt must be at most %d characters", maxPromptLength), "VALIDATION_ERROR")
	}

	if r.MaxTokens < 0 || r.MaxTokens > maxTokensLimit {
		return nil, domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("max_tokens must be between 1 and %d", maxTokensLimit), "VALIDATION_ERROR")
	}

	temperature := defaultTemperature
	if r.Temperature != nil {
		if *r.Temperature < minTemperature || *r.Temperature > maxTemperature {
			return nil, domain.NewAPIError(http.StatusBadRequest,
				"temperature must be between 0 and 2", "VALIDATION_ERROR")
		}
		temperature = *r.Temperature
	}

	if r.Provider != "" && !r.Provider.Valid() {
		return nil, domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("Invalid provider: %s", r.Provider), "INVALID_PROVIDER")
	}

	return &domain.CompletionRequest{
		Model:       r.Model,
		Prompt:      r.Prompt,
		MaxTokens:   r.MaxTokens,
		Temperature: temperature,
		Provider:    r.Provider,
		Stream:      r.Stream,
	}, nil
}

// stockPredictionRequest is the wire form of a stock prediction request.
type stockPredictionRequest struct {
	Ticker string `json:"ticker"`
}

func (r *stockPredictionRequest) validate() *domain.APIError {
	if r.Ticker == "" {
		return domain.NewAPIError(http.StatusBadRequest, "ticker is required", "VALIDATION_ERROR")
	}
	if len(r.Ticker) > maxTickerLength {
		return domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("ticker must be at most %d characters", maxTickerLength), "VALIDATION_ERROR")
	}
	return nil
}
