package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
)

// OpenAI implementa ports.QuantileElicitor y ports.PointForecaster sobre la API
// de chat completions.
type OpenAI struct {
	client *openai.Client
	http   *Client
	model  domain.ModelConfig
}

// NewOpenAI crea el elicitor. baseURL vacío usa la API pública.
func NewOpenAI(apiKey, baseURL string, model domain.ModelConfig, httpClient *Client) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient.http
	return &OpenAI{client: openai.NewClientWithConfig(cfg), http: httpClient, model: model}
}

func (o *OpenAI) Model() domain.ModelConfig { return o.model }

// Elicit implementa ports.QuantileElicitor.
func (o *OpenAI) Elicit(ctx context.Context, req domain.ElicitationRequest) (domain.Elicitation, error) {
	system, user := BuildQuantilePrompt(req)
	text, usage, err := o.complete(ctx, system, user)
	if err != nil {
		return domain.Elicitation{}, fmt.Errorf("llm.OpenAI.Elicit %s: %w", req.Variable, err)
	}

	q, err := ParseQuantiles(text)
	if err != nil {
		return domain.Elicitation{Usage: usage, Raw: text}, fmt.Errorf("llm.OpenAI.Elicit %s: %w", req.Variable, err)
	}
	return domain.Elicitation{Quantiles: q, Usage: usage, Raw: text}, nil
}

// ForecastPoints implementa ports.PointForecaster.
func (o *OpenAI) ForecastPoints(ctx context.Context, req domain.PointForecastRequest) (domain.PointForecasts, error) {
	system, user := BuildPointForecastPrompt(req)
	text, usage, err := o.complete(ctx, system, user)
	if err != nil {
		return domain.PointForecasts{}, fmt.Errorf("llm.OpenAI.ForecastPoints %s: %w", req.Variable.ID, err)
	}

	fs, err := ParsePointForecasts(text, req, o.model.Name)
	if err != nil {
		return domain.PointForecasts{Usage: usage, Raw: text}, fmt.Errorf("llm.OpenAI.ForecastPoints %s: %w", req.Variable.ID, err)
	}
	return domain.PointForecasts{Forecasts: fs, Usage: usage, Raw: text}, nil
}

// complete envía un chat de sistema + usuario y devuelve el texto de la primera opción.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, domain.Usage, error) {
	var resp openai.ChatCompletionResponse
	err := o.http.retry(ctx, func() error {
		var err error
		resp, err = o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model.ModelID,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			MaxTokens:   o.model.MaxTokens,
			Temperature: float32(o.model.Temperature),
		})
		return classifyOpenAI(err)
	})
	if err != nil {
		return "", domain.Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", domain.Usage{}, errors.New("empty choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	usage := domain.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
	return text, usage, nil
}

func classifyOpenAI(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return err
		}
		return backoff.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
