package domain

import (
	"fmt"
	"sort"
	"sync"
)

// Proveedores de LLM soportados.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ModelConfig describe un modelo de elicitación y su precio por millón de tokens.
type ModelConfig struct {
	Name                 string
	Provider             string
	ModelID              string
	InputCostPerMillion  float64
	OutputCostPerMillion float64
	MaxTokens            int
	Temperature          float64
}

// Usage son los tokens consumidos por una llamada.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Cost calcula el coste en dólares de una llamada con el uso dado.
func (m ModelConfig) Cost(u Usage) float64 {
	return float64(u.InputTokens)*m.InputCostPerMillion/1_000_000 +
		float64(u.OutputTokens)*m.OutputCostPerMillion/1_000_000
}

func model(name, provider, id string, in, out float64) ModelConfig {
	return ModelConfig{
		Name:                 name,
		Provider:             provider,
		ModelID:              id,
		InputCostPerMillion:  in,
		OutputCostPerMillion: out,
		MaxTokens:            150,
		Temperature:          0,
	}
}

// SupportedModels es el registro de modelos con precios (USD por millón de tokens).
var SupportedModels = map[string]ModelConfig{
	"gpt-4o":                    model("gpt-4o", ProviderOpenAI, "gpt-4o", 2.50, 10.00),
	"gpt-4o-mini":               model("gpt-4o-mini", ProviderOpenAI, "gpt-4o-mini", 0.15, 0.60),
	"gpt-4.5-preview":           model("gpt-4.5-preview", ProviderOpenAI, "gpt-4.5-preview", 75.00, 150.00),
	"o1":                        model("o1", ProviderOpenAI, "o1", 15.00, 60.00),
	"o1-mini":                   model("o1-mini", ProviderOpenAI, "o1-mini", 3.00, 12.00),
	"claude-opus-4-20250514":    model("claude-opus-4-20250514", ProviderAnthropic, "claude-opus-4-20250514", 15.00, 75.00),
	"claude-sonnet-4-20250514":  model("claude-sonnet-4-20250514", ProviderAnthropic, "claude-sonnet-4-20250514", 3.00, 15.00),
	"claude-haiku-3-5-20241022": model("claude-haiku-3-5-20241022", ProviderAnthropic, "claude-3-5-haiku-20241022", 0.80, 4.00),
}

// LookupModel devuelve la configuración de un modelo por nombre.
func LookupModel(name string) (ModelConfig, error) {
	m, ok := SupportedModels[name]
	if !ok {
		return ModelConfig{}, fmt.Errorf("domain.LookupModel: %q (supported: %v): %w",
			name, SupportedModelNames(), ErrUnknownModel)
	}
	return m, nil
}

// SupportedModelNames devuelve los nombres registrados en orden alfabético.
func SupportedModelNames() []string {
	names := make([]string, 0, len(SupportedModels))
	for n := range SupportedModels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CostTracker acumula tokens y coste de una ejecución. Se pasa explícitamente a
// quien hace llamadas; es seguro para uso concurrente.
type CostTracker struct {
	mu      sync.Mutex
	calls   int
	usage   Usage
	cost    float64
	byModel map[string]float64
}

// NewCostTracker crea un acumulador vacío.
func NewCostTracker() *CostTracker {
	return &CostTracker{byModel: make(map[string]float64)}
}

// Add registra una llamada y devuelve su coste.
func (t *CostTracker) Add(m ModelConfig, u Usage) float64 {
	c := m.Cost(u)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.usage.InputTokens += u.InputTokens
	t.usage.OutputTokens += u.OutputTokens
	t.cost += c
	t.byModel[m.Name] += c
	return c
}

// CostSummary es una foto del acumulador.
type CostSummary struct {
	Calls        int
	InputTokens  int
	OutputTokens int
	TotalCost    float64
}

// Summary devuelve el total acumulado.
func (t *CostTracker) Summary() CostSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CostSummary{
		Calls:        t.calls,
		InputTokens:  t.usage.InputTokens,
		OutputTokens: t.usage.OutputTokens,
		TotalCost:    t.cost,
	}
}

// ModelCost devuelve el coste acumulado por un modelo.
func (t *CostTracker) ModelCost(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byModel[name]
}
