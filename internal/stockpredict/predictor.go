// Package stockpredict turns scraped market pages for a ticker into a
// structured up/down prediction by running the combined page text through the
// gateway as an ordinary completion.
package stockpredict

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/davidbz/howl/internal/domain"
	"github.com/davidbz/howl/internal/observability"
)

// maxPageBytes caps how much of a scraped page is read.
const maxPageBytes = 1 << 20

// maxPromptChars caps the scraped text forwarded to the model so the prompt
// stays inside the request validation limits.
const maxPromptChars = 24000

// Config contains stock prediction settings.
type Config struct {
	QuoteURLTemplate string `env:"STOCK_QUOTE_URL_TEMPLATE" envDefault:"https://finance.yahoo.com/quote/%s"`
	NewsURLTemplate  string `env:"STOCK_NEWS_URL_TEMPLATE"  envDefault:"https://finance.yahoo.com/quote/%s/news"`
	Model            string `env:"STOCK_PREDICTION_MODEL"   envDefault:"gpt-4o"`
	FetchTimeout     int    `env:"STOCK_FETCH_TIMEOUT"      envDefault:"15"`
}

// Prediction is the structured outcome for one ticker.
type Prediction struct {
	Ticker     string  `json:"ticker"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// completer is the slice of the gateway the predictor needs.
type completer interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error)
}

// Predictor scrapes public market pages and asks a model for a direction.
type Predictor struct {
	gateway    completer
	cfg        Config
	httpClient *http.Client
}

// NewPredictor creates a new stock predictor backed by the gateway.
func NewPredictor(gateway *domain.GatewayService, cfg *Config) *Predictor {
	return &Predictor{
		gateway: gateway,
		cfg:     *cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.FetchTimeout) * time.Second,
		},
	}
}

// Predict scrapes the quote and news pages for the ticker and runs the
// combined text through the model. Page fetch failures degrade to whatever
// text was collected; if both pages fail the prediction fails.
func (p *Predictor) Predict(ctx context.Context, ticker string) (*Prediction, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, domain.NewAPIError(http.StatusBadRequest, "ticker is required", "VALIDATION_ERROR")
	}

	logger := observability.FromContext(ctx)

	quote, quoteErr := p.fetchPage(ctx, fmt.Sprintf(p.cfg.QuoteURLTemplate, ticker))
	if quoteErr != nil {
		logger.Warn("quote page fetch failed",
			observability.String("ticker", ticker),
			observability.Error(quoteErr))
	}

	news, newsErr := p.fetchPage(ctx, fmt.Sprintf(p.cfg.NewsURLTemplate, ticker))
	if newsErr != nil {
		logger.Warn("news page fetch failed",
			observability.String("ticker", ticker),
			observability.Error(newsErr))
	}

	if quote == "" && news == "" {
		return nil, domain.NewAPIError(http.StatusBadGateway,
			fmt.Sprintf("failed to fetch market data for %s", ticker), "STOCK_DATA_UNAVAILABLE")
	}

	resp, err := p.gateway.Complete(ctx, &domain.CompletionRequest{
		Model:  p.cfg.Model,
		Prompt: buildPrompt(ticker, quote, news),
	})
	if err != nil {
		return nil, err
	}

	prediction := parsePrediction(resp.Content)
	prediction.Ticker = ticker
	return prediction, nil
}

// fetchPage downloads one page and strips it to plain text.
func (p *Predictor) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; howl/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}

	return stripHTML(string(body)), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// stripHTML reduces a page to whitespace-normalized visible text.
func stripHTML(page string) string {
	page = scriptRe.ReplaceAllString(page, " ")
	page = tagRe.ReplaceAllString(page, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(page, " "))
}

func buildPrompt(ticker, quote, news string) string {
	var b strings.Builder
	b.WriteString("You are a financial analyst. Based on the following market data and news for ")
	b.WriteString(ticker)
	b.WriteString(", predict whether the stock will go up or down tomorrow.\n\n")
	if quote != "" {
		b.WriteString("Quote page:\n")
		b.WriteString(quote)
		b.WriteString("\n\n")
	}
	if news != "" {
		b.WriteString("News page:\n")
		b.WriteString(news)
		b.WriteString("\n\n")
	}
	b.WriteString(`Respond with JSON only: {"prediction": "up" or "down", "confidence": number between 0 and 1, "summary": "one-sentence rationale"}`)

	prompt := b.String()
	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars]
	}
	return prompt
}

// parsePrediction extracts the structured answer from the model output.
// Models wrap JSON in prose or code fences often enough that the parser
// scans for the first JSON object; anything unusable falls back to a neutral
// "down" with zero confidence and the raw text as summary.
func parsePrediction(content string) *Prediction {
	var parsed Prediction
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &parsed); err == nil &&
		(parsed.Prediction == "up" || parsed.Prediction == "down") &&
		parsed.Confidence >= 0 && parsed.Confidence <= 1 {
		return &parsed
	}

	summary := strings.TrimSpace(content)
	if len(summary) > 500 {
		summary = summary[:500]
	}
	return &Prediction{
		Prediction: "down",
		Confidence: 0,
		Summary:    summary,
	}
}

// extractJSONObject returns the first balanced {...} span in the text, or the
// text itself when none is found.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}
