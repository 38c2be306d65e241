package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"recession-meter/internal/risk"
)

// Explainer produces a natural-language assessment of a risk snapshot.
type Explainer interface {
	Explain(ctx context.Context, country string, snap risk.Snapshot) (string, error)
}

// GroqOptions parameterise the completion client.
type GroqOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GroqExplainer invokes the Groq OpenAI-compatible chat completions API.
type GroqExplainer struct {
	opts    GroqOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewGroqExplainer constructs the completion client.
func NewGroqExplainer(opts GroqOptions, logger zerolog.Logger) *GroqExplainer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	if opts.Model == "" {
		opts.Model = "llama3-70b-8192"
	}

	return &GroqExplainer{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "explainer").Logger(),
	}
}

// Explain renders the snapshot into a prompt and returns the model's text.
func (g *GroqExplainer) Explain(ctx context.Context, country string, snap risk.Snapshot) (string, error) {
	if g.opts.APIKey == "" {
		return "", errors.New("groq api key not configured")
	}

	payload := chatRequest{
		Model: g.opts.Model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(country, snap)},
		},
		MaxTokens:   256,
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	endpoint := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.opts.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion api status %d", resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("completion response contained no choices")
	}

	g.logger.Debug().Str("country", country).Msg("risk explanation generated")
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// buildPrompt formats the latest score and indicator values. Indicator lines
// are sorted so the prompt is deterministic for identical snapshots.
func buildPrompt(country string, snap risk.Snapshot) string {
	names := make([]string, 0, len(snap.Indicators))
	for name := range snap.Indicators {
		names = append(names, name)
	}
	sort.Strings(names)

	builder := strings.Builder{}
	builder.WriteString("You are a macro analyst following Ray Dalio's principles.\n")
	fmt.Fprintf(&builder, "Country: %s\n", country)
	fmt.Fprintf(&builder, "Computed recession risk: %.1f%%\n", snap.Score)
	builder.WriteString("Latest indicator values:\n")
	for _, name := range names {
		fmt.Fprintf(&builder, "- %s: %.4f\n", name, snap.Indicators[name])
	}
	builder.WriteString("\nRespond in this format:\n- Risk percentage: X%\n- Explanation: brief and clear, Ray Dalio style\n")
	return builder.String()
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var _ Explainer = (*GroqExplainer)(nil)
