// Package httpserver exposes the gateway over HTTP: model listings, provider
// availability, completions (JSON or SSE), health, and stock prediction.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
	"github.com/davidbz/howl/internal/stockpredict"
)

// Handler handles HTTP requests.
type Handler struct {
	gateway   *domain.GatewayService
	registry  domain.ModelRegistry
	predictor *stockpredict.Predictor
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	gateway *domain.GatewayService,
	registry domain.ModelRegistry,
	predictor *stockpredict.Predictor,
) *Handler {
	return &Handler{
		gateway:   gateway,
		registry:  registry,
		predictor: predictor,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Status already written, nothing left to do but log.
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}

// errorEnvelope is the wire shape of every error response.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// writeError renders err as the standard error envelope with the APIError's
// status code.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	apiErr := domain.AsAPIError(err)
	writeJSON(ctx, w, apiErr.StatusCode, errorEnvelope{
		Error: errorDetail{Message: apiErr.Message, Code: apiErr.Code},
	})
}

// HandleRoot describes the API.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(r.Context(), w,
			domain.NewAPIError(http.StatusNotFound, "Not found", "NOT_FOUND"))
		return
	}

	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"name":        "AI API Server",
		"version":     "1.0.0",
		"description": "API server for OpenAI, DeepSeek, and LiteLLM models",
		"endpoints": map[string]string{
			"models":        "/api/models",
			"providers":     "/api/providers",
			"completions":   "/api/completions",
			"health":        "/api/health",
			"predict_stock": "/api/predict/stock",
		},
	})
}

// HandleModels lists models, optionally filtered by provider, hiding models
// whose provider is currently unavailable.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(ctx, w, domain.NewAPIError(http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED"))
		return
	}

	var filter domain.AIProvider
	if providerParam := r.URL.Query().Get("provider"); providerParam != "" {
		filter = domain.AIProvider(providerParam)
		if !filter.Valid() {
			writeError(ctx, w, domain.NewAPIError(http.StatusBadRequest,
				fmt.Sprintf("Invalid provider: %s", providerParam), "INVALID_PROVIDER"))
			return
		}
	}

	availability := h.gateway.AvailableProviders(ctx)

	models := make([]domain.Model, 0)
	for _, model := range h.registry.ListAll() {
		if filter != "" && model.Provider != filter {
			continue
		}
		if !availability[model.Provider] {
			continue
		}
		models = append(models, model)
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"models":    models,
		"providers": availability,
	})
}

// providerInfo is the per-provider block of the providers listing.
type providerInfo struct {
	Available bool           `json:"available"`
	Models    []domain.Model `json:"models"`
}

// HandleProviders reports each provider's availability and visible models.
// Unavailable providers list no models.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		writeError(ctx, w, domain.NewAPIError(http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED"))
		return
	}

	availability := h.gateway.AvailableProviders(ctx)

	providers := make(map[domain.AIProvider]providerInfo, len(availability))
	for _, p := range domain.AllProviders() {
		info := providerInfo{Available: availability[p], Models: []domain.Model{}}
		if info.Available {
			info.Models = h.registry.ModelsFor(p)
		}
		providers[p] = info
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"providers": providers})
}

// HandleCompletion processes completion requests, streaming or not.
func (h *Handler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(ctx, w, domain.NewAPIError(http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED"))
		return
	}

	var wire completionRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(ctx, w, domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("invalid request body: %v", err), "VALIDATION_ERROR"))
		return
	}

	req, validationErr := wire.validate()
	if validationErr != nil {
		writeError(ctx, w, validationErr)
		return
	}

	// Inject model into context for downstream logging.
	ctx = observability.WithModel(ctx, req.Model)

	logger := observability.FromContext(ctx)
	logger.Info("completion request received",
		observability.String("model", req.Model),
		observability.Bool("stream", req.Stream),
	)

	if req.Stream {
		h.handleStream(ctx, w, req)
		return
	}

	response, err := h.gateway.Complete(ctx, req)
	if err != nil {
		logger.Error("completion failed", observability.Error(err))
		writeError(ctx, w, err)
		return
	}

	logger.Info("completion succeeded",
		observability.Int("tokens", response.Usage.TotalTokens))

	writeJSON(ctx, w, http.StatusOK, response)
}

// sseDone is the stream termination sentinel sent after the last frame.
const sseDone = "data: [DONE]\n\n"

func (h *Handler) handleStream(ctx context.Context, w http.ResponseWriter, req *domain.CompletionRequest) {
	logger := observability.FromContext(ctx)

	// Errors before the first chunk keep the plain JSON error shape; SSE
	// headers are only committed once the upstream stream is open.
	chunks, err := h.gateway.Stream(ctx, req)
	if err != nil {
		logger.Error("stream failed", observability.Error(err))
		writeError(ctx, w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("streaming not supported")
		writeError(ctx, w, domain.NewAPIError(http.StatusInternalServerError,
			"streaming not supported", "STREAMING_UNSUPPORTED"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	writeFrame := func(payload any) {
		data, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			logger.Error("failed to encode stream frame", observability.Error(marshalErr))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	finish := func() {
		fmt.Fprint(w, sseDone)
		flusher.Flush()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("stream context done", observability.Error(ctx.Err()))
			return

		case chunk, open := <-chunks:
			if !open {
				// Channel closed without a terminal chunk; terminate anyway.
				finish()
				return
			}

			if chunk.Err != nil {
				logger.Error("stream chunk error", observability.Error(chunk.Err))
				writeFrame(errorEnvelope{
					Error: errorDetail{Message: chunk.Err.Message, Code: chunk.Err.Code},
				})
				finish()
				return
			}

			writeFrame(chunk)

			if chunk.IsLastChunk {
				logger.Info("stream completed")
				finish()
				return
			}
		}
	}
}

// HandleHealth reports overall health plus per-provider availability.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	writeJSON(ctx, w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"providers": h.gateway.AvailableProviders(ctx),
	})
}

// HandleStockPrediction predicts a ticker's direction from scraped market
// pages run through the configured model.
func (h *Handler) HandleStockPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(ctx, w, domain.NewAPIError(http.StatusMethodNotAllowed, "method not allowed", "METHOD_NOT_ALLOWED"))
		return
	}

	var wire stockPredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(ctx, w, domain.NewAPIError(http.StatusBadRequest,
			fmt.Sprintf("invalid request body: %v", err), "VALIDATION_ERROR"))
		return
	}

	if validationErr := wire.validate(); validationErr != nil {
		writeError(ctx, w, validationErr)
		return
	}

	prediction, err := h.predictor.Predict(ctx, wire.Ticker)
	if err != nil {
		observability.FromContext(ctx).Error("stock prediction failed",
			observability.String("ticker", wire.Ticker),
			observability.Error(err))
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, prediction)
}
