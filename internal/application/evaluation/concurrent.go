package evaluation

// concurrent.go: worker pool para ejecutar forecasters en paralelo.
//
// Cada job es (variable, cutoff, forecaster). Los forecasters son puros y sin
// estado, así que los workers comparten las instancias. El resultado se
// reordena por clave para que la salida no dependa del scheduling.
//
// Los forecasters remotos (LLMs) van por un errgroup aparte con su propio
// límite de concurrencia.

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/domain/baseline"
	"github.com/alejandrodnm/valuecast/internal/ports"
	"golang.org/x/sync/errgroup"
)

// job es una unidad de trabajo del pool.
type job struct {
	forecaster baseline.Forecaster
	request    domain.ForecastRequest
}

// forecastConcurrent ejecuta todos los jobs con un pool de workers y devuelve
// los forecasts ordenados por (variable, cutoff, target, model).
//
// Si workers <= 0 usa runtime.NumCPU() × 2.
func forecastConcurrent(ctx context.Context, jobs []job, workers int) []domain.Forecast {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	workCh := make(chan job, len(jobs))
	resultCh := make(chan []domain.Forecast, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range workCh {
				if ctx.Err() != nil {
					continue
				}
				fs := j.forecaster.Forecast(j.request)
				if len(fs) == 0 {
					slog.Debug("forecaster produced nothing",
						"variable", j.request.Variable,
						"model", j.forecaster.Name(),
						"cutoff", j.request.CutoffYear,
					)
					continue
				}
				resultCh <- fs
			}
		}()
	}

	for _, j := range jobs {
		workCh <- j
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var out []domain.Forecast
	for fs := range resultCh {
		out = append(out, fs...)
	}
	sortForecasts(out)

	slog.Debug("concurrent forecasting complete",
		"jobs", len(jobs),
		"forecasts", len(out),
		"workers", workers,
	)
	return out
}

// defaultRemoteLimit acota las llamadas simultáneas a proveedores externos.
const defaultRemoteLimit = 4

// forecastRemote pide a cada PointForecaster todas las peticiones, con como
// mucho limit llamadas en vuelo. Las peticiones fallidas se registran y se
// omiten; solo la cancelación del contexto aborta. El coste de las llamadas
// exitosas se acumula en tracker.
func forecastRemote(
	ctx context.Context,
	forecasters []ports.PointForecaster,
	reqs []domain.PointForecastRequest,
	limit int,
	tracker *domain.CostTracker,
) ([]domain.Forecast, error) {
	if limit <= 0 {
		limit = defaultRemoteLimit
	}
	results := make([][]domain.Forecast, len(forecasters)*len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pf := range forecasters {
		model := pf.Model()
		for j, req := range reqs {
			slot := i*len(reqs) + j
			g.Go(func() error {
				resp, err := pf.ForecastPoints(gctx, req)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					slog.Warn("point forecast failed",
						"variable", req.Variable.ID,
						"model", model.Name,
						"cutoff", req.CutoffYear,
						"err", err,
					)
					return nil
				}
				tracker.Add(model, resp.Usage)
				results[slot] = resp.Forecasts
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Forecast
	for _, fs := range results {
		out = append(out, fs...)
	}
	return out, nil
}

func sortForecasts(fs []domain.Forecast) {
	sort.Slice(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.Variable != b.Variable {
			return a.Variable < b.Variable
		}
		if a.CutoffYear != b.CutoffYear {
			return a.CutoffYear < b.CutoffYear
		}
		if a.TargetYear != b.TargetYear {
			return a.TargetYear < b.TargetYear
		}
		return a.Model < b.Model
	})
}
