package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/alejandrodnm/valuecast/internal/domain"
)

const (
	defaultAnthropicBase = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Anthropic implementa ports.QuantileElicitor y ports.PointForecaster sobre la
// Messages API.
type Anthropic struct {
	http    *Client
	apiKey  string
	baseURL string
	model   domain.ModelConfig
}

// NewAnthropic crea el elicitor. baseURL vacío usa la API pública.
func NewAnthropic(apiKey, baseURL string, model domain.ModelConfig, httpClient *Client) *Anthropic {
	if baseURL == "" {
		baseURL = defaultAnthropicBase
	}
	return &Anthropic{
		http:    httpClient,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
	}
}

func (a *Anthropic) Model() domain.ModelConfig { return a.model }

// Elicit implementa ports.QuantileElicitor.
func (a *Anthropic) Elicit(ctx context.Context, req domain.ElicitationRequest) (domain.Elicitation, error) {
	system, user := BuildQuantilePrompt(req)
	text, usage, err := a.complete(ctx, system, user)
	if err != nil {
		return domain.Elicitation{}, fmt.Errorf("llm.Anthropic.Elicit %s: %w", req.Variable, err)
	}

	q, err := ParseQuantiles(text)
	if err != nil {
		return domain.Elicitation{Usage: usage, Raw: text}, fmt.Errorf("llm.Anthropic.Elicit %s: %w", req.Variable, err)
	}
	return domain.Elicitation{Quantiles: q, Usage: usage, Raw: text}, nil
}

// ForecastPoints implementa ports.PointForecaster.
func (a *Anthropic) ForecastPoints(ctx context.Context, req domain.PointForecastRequest) (domain.PointForecasts, error) {
	system, user := BuildPointForecastPrompt(req)
	text, usage, err := a.complete(ctx, system, user)
	if err != nil {
		return domain.PointForecasts{}, fmt.Errorf("llm.Anthropic.ForecastPoints %s: %w", req.Variable.ID, err)
	}

	fs, err := ParsePointForecasts(text, req, a.model.Name)
	if err != nil {
		return domain.PointForecasts{Usage: usage, Raw: text}, fmt.Errorf("llm.Anthropic.ForecastPoints %s: %w", req.Variable.ID, err)
	}
	return domain.PointForecasts{Forecasts: fs, Usage: usage, Raw: text}, nil
}

// complete envía un mensaje a la Messages API y devuelve el primer bloque de texto.
func (a *Anthropic) complete(ctx context.Context, system, user string) (string, domain.Usage, error) {
	body := anthropicRequest{
		Model:     a.model.ModelID,
		MaxTokens: a.model.MaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	}
	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := a.http.postJSON(ctx, a.baseURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", domain.Usage{}, err
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text = strings.TrimSpace(c.Text)
			break
		}
	}
	usage := domain.Usage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	return text, usage, nil
}
