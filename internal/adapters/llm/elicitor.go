package llm

import (
	"errors"
	"fmt"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/ports"
)

// ErrMissingAPIKey se devuelve cuando falta la clave del proveedor del modelo.
var ErrMissingAPIKey = errors.New("missing API key")

// Config contiene las credenciales y endpoints de los proveedores.
type Config struct {
	OpenAIKey     string
	OpenAIBase    string
	AnthropicKey  string
	AnthropicBase string
	MaxTokens     int // 0 = el del registro de modelos
}

// adapter es un proveedor que sirve tanto cuantiles como forecasts puntuales.
type adapter interface {
	ports.QuantileElicitor
	ports.PointForecaster
}

// NewElicitor construye el adapter del proveedor del modelo.
func NewElicitor(model domain.ModelConfig, cfg Config, client *Client) (ports.QuantileElicitor, error) {
	a, err := newAdapter(model, cfg, client)
	if err != nil {
		return nil, fmt.Errorf("llm.NewElicitor: %w", err)
	}
	return a, nil
}

// NewPointForecaster construye el adapter del proveedor del modelo para
// forecasts puntuales con intervalo.
func NewPointForecaster(model domain.ModelConfig, cfg Config, client *Client) (ports.PointForecaster, error) {
	a, err := newAdapter(model, cfg, client)
	if err != nil {
		return nil, fmt.Errorf("llm.NewPointForecaster: %w", err)
	}
	return a, nil
}

func newAdapter(model domain.ModelConfig, cfg Config, client *Client) (adapter, error) {
	if cfg.MaxTokens > 0 {
		model.MaxTokens = cfg.MaxTokens
	}
	switch model.Provider {
	case domain.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("%s: OPENAI_API_KEY: %w", model.Name, ErrMissingAPIKey)
		}
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBase, model, client), nil
	case domain.ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("%s: ANTHROPIC_API_KEY: %w", model.Name, ErrMissingAPIKey)
		}
		return NewAnthropic(cfg.AnthropicKey, cfg.AnthropicBase, model, client), nil
	}
	return nil, fmt.Errorf("unknown provider %q", model.Provider)
}
