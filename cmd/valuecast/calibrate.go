package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/valuecast/config"
	"github.com/alejandrodnm/valuecast/internal/adapters/llm"
	"github.com/alejandrodnm/valuecast/internal/application/calibration"
	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/ports"
)

func runCalibrate(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	el, err := newElicitor(cfg, opts.model)
	if err != nil {
		return err
	}
	_, err = newExperiment(cfg, opts, d).Run(ctx, el)
	return err
}

func runCompare(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	names := cfg.Calibration.CompareModels
	if opts.models != "" {
		names = splitList(opts.models)
	}
	if len(names) == 0 {
		names = domain.SupportedModelNames()
	}

	client := newLLMClient(cfg)
	els := make([]ports.QuantileElicitor, 0, len(names))
	for _, name := range names {
		el, err := buildElicitor(cfg, name, client)
		if err != nil {
			slog.Warn("model skipped", "model", name, "err", err)
			continue
		}
		els = append(els, el)
	}
	if len(els) == 0 {
		return fmt.Errorf("compare: no usable models among %v", names)
	}

	_, err := newExperiment(cfg, opts, d).Compare(ctx, els)
	return err
}

// runLongTerm usa el último multiplicador guardado del modelo. Si no hay
// ninguno, ejecuta antes el experimento de calibración.
func runLongTerm(ctx context.Context, cfg *config.Config, opts options, d deps) error {
	el, err := newElicitor(cfg, opts.model)
	if err != nil {
		return err
	}
	exp := newExperiment(cfg, opts, d)

	mult, stored := exp.SpreadMultiplier(ctx, el.Model().Name)
	if !stored {
		slog.Info("no stored spread multiplier, running calibration first", "model", el.Model().Name)
		report, err := exp.Run(ctx, el)
		if err != nil {
			return err
		}
		mult = report.SpreadMultiplier
	}
	slog.Info("using spread multiplier", "model", el.Model().Name, "multiplier", mult, "stored", stored)

	_, err = exp.LongTerm(ctx, el, mult)
	return err
}

func newExperiment(cfg *config.Config, opts options, d deps) *calibration.Experiment {
	c := cfg.Calibration
	ec := calibration.Config{
		CutoffYear:    c.CutoffYear,
		TargetYear:    c.TargetYear,
		LongTermYears: c.LongTermYears,
		Concurrency:   c.Concurrency,
		MinHistory:    c.MinHistory,
		MinForecasts:  c.MinForecasts,
		CILevel:       c.CILevel,
	}
	if opts.cutoff > 0 {
		ec.CutoffYear = opts.cutoff
	}
	if opts.target > 0 {
		ec.TargetYear = opts.target
	}
	return calibration.New(ec, d.provider, d.storage, d.exporter, d.notifier)
}

func newElicitor(cfg *config.Config, flagModel string) (ports.QuantileElicitor, error) {
	name := cfg.Calibration.Model
	if flagModel != "" {
		name = flagModel
	}
	return buildElicitor(cfg, name, newLLMClient(cfg))
}

func buildElicitor(cfg *config.Config, name string, client *llm.Client) (ports.QuantileElicitor, error) {
	model, err := domain.LookupModel(name)
	if err != nil {
		return nil, err
	}
	return llm.NewElicitor(model, llmConfig(cfg), client)
}

func buildPointForecaster(cfg *config.Config, name string, client *llm.Client) (ports.PointForecaster, error) {
	model, err := domain.LookupModel(name)
	if err != nil {
		return nil, err
	}
	return llm.NewPointForecaster(model, llmConfig(cfg), client)
}

func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBase:    cfg.LLM.OpenAIBase,
		AnthropicKey:  cfg.LLM.AnthropicKey,
		AnthropicBase: cfg.LLM.AnthropicBase,
		MaxTokens:     cfg.LLM.MaxTokens,
	}
}

func newLLMClient(cfg *config.Config) *llm.Client {
	return llm.NewClient(llm.ClientOptions{
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.LLM.MaxRetries,
	})
}
