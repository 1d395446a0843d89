package stockpredict //nolint:testpackage // Exercises the unexported parsing helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/howl/internal/domain"
)

// fakeCompleter records the request and returns a canned response.
type fakeCompleter struct {
	lastReq  *domain.CompletionRequest
	response *domain.CompletionResponse
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	f.lastReq = req
	return f.response, f.err
}

func newTestPredictor(gateway completer, cfg Config) *Predictor {
	return &Predictor{
		gateway:    gateway,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestStripHTML(t *testing.T) {
	page := `<html><head><style>.x { color: red }</style>
	<script>alert("hi")</script></head>
	<body><h1>ACME   Corp</h1><p>Price: <b>123.45</b></p></body></html>`

	got := stripHTML(page)

	require.Equal(t, "ACME Corp Price: 123.45", got)
	require.NotContains(t, got, "alert")
	require.NotContains(t, got, "color: red")
}

func TestParsePrediction(t *testing.T) {
	t.Run("parses a bare JSON object", func(t *testing.T) {
		got := parsePrediction(`{"prediction": "up", "confidence": 0.75, "summary": "looks strong"}`)

		require.Equal(t, "up", got.Prediction)
		require.InDelta(t, 0.75, got.Confidence, 0.0001)
		require.Equal(t, "looks strong", got.Summary)
	})

	t.Run("parses JSON wrapped in prose", func(t *testing.T) {
		content := "Here is my analysis:\n```json\n" +
			`{"prediction": "down", "confidence": 0.6, "summary": "weak guidance"}` +
			"\n```\nLet me know if you need more."

		got := parsePrediction(content)

		require.Equal(t, "down", got.Prediction)
		require.InDelta(t, 0.6, got.Confidence, 0.0001)
	})

	t.Run("invalid direction falls back", func(t *testing.T) {
		got := parsePrediction(`{"prediction": "sideways", "confidence": 0.5, "summary": "meh"}`)

		require.Equal(t, "down", got.Prediction)
		require.Zero(t, got.Confidence)
	})

	t.Run("confidence out of range falls back", func(t *testing.T) {
		got := parsePrediction(`{"prediction": "up", "confidence": 1.5, "summary": "too sure"}`)

		require.Equal(t, "down", got.Prediction)
		require.Zero(t, got.Confidence)
	})

	t.Run("non-JSON output falls back with the raw text as summary", func(t *testing.T) {
		got := parsePrediction("I think the stock will probably rise tomorrow.")

		require.Equal(t, "down", got.Prediction)
		require.Zero(t, got.Confidence)
		require.Equal(t, "I think the stock will probably rise tomorrow.", got.Summary)
	})
}

func TestPredictor_Predict(t *testing.T) {
	t.Run("scrapes both pages and queries the model", func(t *testing.T) {
		quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/quote/ACME", r.URL.Path)
			_, _ = w.Write([]byte(`<html><body>Price 42.00</body></html>`))
		}))
		defer quote.Close()

		news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/news/ACME", r.URL.Path)
			_, _ = w.Write([]byte(`<html><body>ACME beats expectations</body></html>`))
		}))
		defer news.Close()

		gateway := &fakeCompleter{response: &domain.CompletionResponse{
			Content: `{"prediction": "up", "confidence": 0.9, "summary": "beat expectations"}`,
		}}
		predictor := newTestPredictor(gateway, Config{
			QuoteURLTemplate: quote.URL + "/quote/%s",
			NewsURLTemplate:  news.URL + "/news/%s",
			Model:            "gpt-4o",
		})

		got, err := predictor.Predict(context.Background(), "acme")
		require.NoError(t, err)

		require.Equal(t, "ACME", got.Ticker)
		require.Equal(t, "up", got.Prediction)
		require.InDelta(t, 0.9, got.Confidence, 0.0001)

		require.NotNil(t, gateway.lastReq)
		require.Equal(t, "gpt-4o", gateway.lastReq.Model)
		require.Contains(t, gateway.lastReq.Prompt, "ACME")
		require.Contains(t, gateway.lastReq.Prompt, "Price 42.00")
		require.Contains(t, gateway.lastReq.Prompt, "beats expectations")
	})

	t.Run("degrades to one page when the other fails", func(t *testing.T) {
		quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`Price 42.00`))
		}))
		defer quote.Close()

		news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer news.Close()

		gateway := &fakeCompleter{response: &domain.CompletionResponse{
			Content: `{"prediction": "down", "confidence": 0.55, "summary": "thin data"}`,
		}}
		predictor := newTestPredictor(gateway, Config{
			QuoteURLTemplate: quote.URL + "/%s",
			NewsURLTemplate:  news.URL + "/%s",
			Model:            "gpt-4o",
		})

		got, err := predictor.Predict(context.Background(), "ACME")
		require.NoError(t, err)
		require.Equal(t, "down", got.Prediction)
	})

	t.Run("fails when no page could be fetched", func(t *testing.T) {
		dead := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		dead.Close()

		gateway := &fakeCompleter{}
		predictor := newTestPredictor(gateway, Config{
			QuoteURLTemplate: dead.URL + "/quote/%s",
			NewsURLTemplate:  dead.URL + "/news/%s",
			Model:            "gpt-4o",
		})

		_, err := predictor.Predict(context.Background(), "ACME")
		require.Error(t, err)
		require.Equal(t, "STOCK_DATA_UNAVAILABLE", domain.AsAPIError(err).Code)
		require.Nil(t, gateway.lastReq)
	})

	t.Run("rejects an empty ticker", func(t *testing.T) {
		predictor := newTestPredictor(&fakeCompleter{}, Config{})

		_, err := predictor.Predict(context.Background(), "   ")
		require.Error(t, err)
		require.Equal(t, 400, domain.AsAPIError(err).StatusCode)
	})

	t.Run("gateway failures are propagated", func(t *testing.T) {
		quote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`Price 42.00`))
		}))
		defer quote.Close()

		gateway := &fakeCompleter{err: domain.ErrModelNotFound("gpt-9")}
		predictor := newTestPredictor(gateway, Config{
			QuoteURLTemplate: quote.URL + "/%s",
			NewsURLTemplate:  quote.URL + "/%s",
			Model:            "gpt-9",
		})

		_, err := predictor.Predict(context.Background(), "ACME")
		require.Error(t, err)
		require.Equal(t, "MODEL_NOT_FOUND", domain.AsAPIError(err).Code)
	})
}
