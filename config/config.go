package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de valuecast.
type Config struct {
	Data        DataConfig        `yaml:"data"`
	Evaluation  EvaluationConfig  `yaml:"evaluation"`
	Forecast    ForecastConfig    `yaml:"forecast"`
	Calibration CalibrationConfig `yaml:"calibration"`
	LLM         LLMConfig         `yaml:"llm"`
	Storage     StorageConfig     `yaml:"storage"`
	Export      ExportConfig      `yaml:"export"`
	Log         LogConfig         `yaml:"log"`
}

// DataConfig indica de dónde salen las trayectorias.
type DataConfig struct {
	TrajectoriesPath string `yaml:"trajectories_path"` // JSON; vacío = variables GSS integradas
}

// EvaluationConfig controla la evaluación de baselines y LLMs con años reservados.
type EvaluationConfig struct {
	CutoffYears    []int    `yaml:"cutoff_years"`
	Models         []string `yaml:"models"`          // naive | linear | arima | ets; vacío = todos
	Workers        int      `yaml:"workers"`         // 0 = NumCPU*2
	ARIMAOrder     []int    `yaml:"arima_order"`     // p, d, q; ausente = (1, 1, 0)
	LLMModels      []string `yaml:"llm_models"`      // LLMs puntuados junto a los baselines; vacío = ninguno
	LLMConcurrency int      `yaml:"llm_concurrency"` // 0 = 4
}

// ForecastConfig controla los forecasts de baselines a años futuros.
type ForecastConfig struct {
	CutoffYear  int   `yaml:"cutoff_year"` // 0 = último año observado
	TargetYears []int `yaml:"target_years"`
}

// CalibrationConfig controla los experimentos de calibración.
type CalibrationConfig struct {
	Model         string   `yaml:"model"`
	CompareModels []string `yaml:"compare_models"`
	CutoffYear    int      `yaml:"cutoff_year"`
	TargetYear    int      `yaml:"target_year"`
	LongTermYears []int    `yaml:"long_term_years"`
	MinHistory    int      `yaml:"min_history"`
	MinForecasts  int      `yaml:"min_forecasts"`
	CILevel       float64  `yaml:"ci_level"`
	Concurrency   int      `yaml:"concurrency"`
}

// LLMConfig contiene credenciales y límites de los proveedores.
type LLMConfig struct {
	OpenAIKey         string  `yaml:"-"` // solo desde OPENAI_API_KEY
	AnthropicKey      string  `yaml:"-"` // solo desde ANTHROPIC_API_KEY
	OpenAIBase        string  `yaml:"openai_base"`
	AnthropicBase     string  `yaml:"anthropic_base"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`
	MaxTokens         int     `yaml:"max_tokens"` // 0 = el del registro de modelos
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// ExportConfig controla el volcado a Parquet.
type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if n := len(cfg.Evaluation.ARIMAOrder); n != 3 {
		return nil, fmt.Errorf("config.Load: arima_order needs 3 values (p, d, q), got %d", n)
	}

	return &cfg, nil
}

// Timeout devuelve el timeout HTTP de las llamadas a LLMs.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.AnthropicKey = v
	}
	if v := os.Getenv("VALUECAST_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("VALUECAST_TRAJECTORIES"); v != "" {
		cfg.Data.TrajectoriesPath = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Evaluation.CutoffYears) == 0 {
		cfg.Evaluation.CutoffYears = []int{1990, 2000, 2010}
	}
	if cfg.Evaluation.ARIMAOrder == nil {
		cfg.Evaluation.ARIMAOrder = []int{1, 1, 0}
	}
	if len(cfg.Forecast.TargetYears) == 0 {
		cfg.Forecast.TargetYears = []int{2030, 2040, 2050}
	}
	if cfg.Calibration.Model == "" {
		cfg.Calibration.Model = "gpt-4o"
	}
	if cfg.Calibration.CutoffYear <= 0 {
		cfg.Calibration.CutoffYear = 2021
	}
	if cfg.Calibration.TargetYear <= 0 {
		cfg.Calibration.TargetYear = 2024
	}
	if len(cfg.Calibration.LongTermYears) == 0 {
		cfg.Calibration.LongTermYears = []int{2030, 2040, 2050}
	}
	if cfg.Calibration.MinHistory <= 0 {
		cfg.Calibration.MinHistory = 3
	}
	if cfg.Calibration.MinForecasts <= 0 {
		cfg.Calibration.MinForecasts = 3
	}
	if !(cfg.Calibration.CILevel > 0 && cfg.Calibration.CILevel < 1) {
		cfg.Calibration.CILevel = 0.8
	}
	if cfg.Calibration.Concurrency <= 0 {
		cfg.Calibration.Concurrency = 4
	}
	if cfg.LLM.RequestsPerSecond <= 0 {
		cfg.LLM.RequestsPerSecond = 2
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.LLM.MaxRetries < 0 {
		cfg.LLM.MaxRetries = 0
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "valuecast.db"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "results"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
