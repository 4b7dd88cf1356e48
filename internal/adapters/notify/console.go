package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// coverageTolerance es la distancia máxima al objetivo para considerar una
// cobertura bien calibrada.
const coverageTolerance = 0.10

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	verbose bool

	good *color.Color
	warn *color.Color
	bad  *color.Color
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return newConsole(os.Stdout, verbose, true)
}

// NewConsoleWriter crea un notificador para tests, sin colores.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return newConsole(w, verbose, false)
}

func newConsole(w io.Writer, verbose, colored bool) *Console {
	c := &Console{
		out:     w,
		verbose: verbose,
		good:    color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		bad:     color.New(color.FgRed),
	}
	if !colored {
		c.good.DisableColor()
		c.warn.DisableColor()
		c.bad.DisableColor()
	}
	return c
}

// NotifyEvaluation imprime las métricas por modelo ordenadas por MAE y, en modo
// verbose, cada forecast evaluado.
func (c *Console) NotifyEvaluation(_ context.Context, report domain.EvaluationReport) error {
	fmt.Fprintf(c.out, "\n[%s] evaluation %s: %d forecasts, cutoffs %v\n",
		stamp(report.CreatedAt), report.RunID, len(report.Results), report.CutoffYears)

	if len(report.Metrics) == 0 {
		fmt.Fprintln(c.out, "  no forecasts could be evaluated")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Model", "N", "MAE", "RMSE", "Bias", "Cov90", "CalErr")
	for i, m := range report.Metrics {
		table.Append(
			fmt.Sprintf("%d", i+1),
			m.Model,
			fmt.Sprintf("%d", m.NForecasts),
			fmt.Sprintf("%.2f", m.MAE),
			fmt.Sprintf("%.2f", m.RMSE),
			fmt.Sprintf("%+.2f", m.Bias),
			c.coverage(m.Coverage90, 0.90),
			fmt.Sprintf("%.3f", m.CalibrationError),
		)
	}
	table.Render()
	fmt.Fprintln(c.out, "  MAE/RMSE/Bias en puntos porcentuales | Cov90 = fracción dentro del intervalo del 90%")
	if report.Cost.Calls > 0 {
		fmt.Fprintf(c.out, "  LLM cost: $%.4f (%d calls, %d in / %d out tokens)\n",
			report.Cost.TotalCost, report.Cost.Calls, report.Cost.InputTokens, report.Cost.OutputTokens)
	}

	if c.verbose {
		c.printResults(report.Results)
	}
	return nil
}

// NotifyForecasts imprime forecasts de años futuros agrupados por variable.
func (c *Console) NotifyForecasts(_ context.Context, forecasts []domain.Forecast) error {
	if len(forecasts) == 0 {
		fmt.Fprintln(c.out, "no forecasts produced")
		return nil
	}

	sorted := append([]domain.Forecast(nil), forecasts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Variable != b.Variable {
			return a.Variable < b.Variable
		}
		if a.TargetYear != b.TargetYear {
			return a.TargetYear < b.TargetYear
		}
		return a.Model < b.Model
	})

	table := tablewriter.NewWriter(c.out)
	table.Header("Variable", "Year", "Model", "Point", "90% interval")
	for _, f := range sorted {
		table.Append(
			f.Variable,
			fmt.Sprintf("%d", f.TargetYear),
			f.Model,
			fmt.Sprintf("%.1f%%", f.PointEstimate),
			fmt.Sprintf("[%.1f, %.1f]", f.LowerBound, f.UpperBound),
		)
	}
	table.Render()
	return nil
}

// NotifyCalibration imprime el detalle por variable y el resumen del experimento.
func (c *Console) NotifyCalibration(_ context.Context, r domain.CalibrationReport) error {
	fmt.Fprintf(c.out, "\n=== CALIBRATION %s (cutoff %d → target %d) ===\n", r.Model, r.CutoffYear, r.TargetYear)

	if len(r.Entries) == 0 {
		fmt.Fprintln(c.out, "  no successful forecasts")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Variable", "Actual", "Q10", "Q50", "Q90", "Std", "CRPS", "80% CI (cal)")
	for _, e := range r.Entries {
		table.Append(
			e.Variable,
			fmt.Sprintf("%.1f", e.Actual),
			fmt.Sprintf("%.1f", e.Quantiles.Q10),
			fmt.Sprintf("%.1f", e.Quantiles.Q50),
			fmt.Sprintf("%.1f", e.Quantiles.Q90),
			fmt.Sprintf("%.2f", e.Std),
			fmt.Sprintf("%.3f", e.RawCRPS),
			fmt.Sprintf("[%.1f, %.1f]", e.Calibrated.CILower, e.Calibrated.CIUpper),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n  Forecasts:          %d\n", len(r.Entries))
	fmt.Fprintf(c.out, "  MAE (median):       %.2f pts\n", r.MAE)
	fmt.Fprintf(c.out, "  Raw 50%% coverage:   %s\n", c.coverage(r.RawCoverage50, 0.50))
	fmt.Fprintf(c.out, "  Raw 80%% coverage:   %s\n", c.coverage(r.RawCoverage80, 0.80))

	if !r.Calibrated {
		fmt.Fprintf(c.out, "  %s\n", c.warn.Sprint("not enough forecasts to calibrate; spread multiplier left at 1.0"))
	} else {
		fmt.Fprintf(c.out, "  Spread multiplier:  %.3f (%s)\n", r.SpreadMultiplier, spreadVerdict(r.SpreadMultiplier))
		fmt.Fprintf(c.out, "  Cal. 80%% coverage:  %s\n", c.coverage(r.CalibratedCoverage, 0.80))
	}
	fmt.Fprintf(c.out, "  Raw CRPS:           %.4f\n", r.RawMeanCRPS)
	fmt.Fprintf(c.out, "  Calibrated CRPS:    %.4f", r.CalibratedMeanCRPS)
	if r.RawMeanCRPS > 0 {
		fmt.Fprintf(c.out, "  (%+.1f%%)", (r.CalibratedMeanCRPS-r.RawMeanCRPS)/r.RawMeanCRPS*100)
	}
	fmt.Fprintln(c.out)

	if r.Cost.Calls > 0 {
		fmt.Fprintf(c.out, "  Cost:               $%.4f (%d calls, %d in / %d out tokens)\n",
			r.Cost.TotalCost, r.Cost.Calls, r.Cost.InputTokens, r.Cost.OutputTokens)
	}
	fmt.Fprintln(c.out)
	return nil
}

// NotifyComparison imprime la comparación entre modelos ordenada por CRPS calibrado.
func (c *Console) NotifyComparison(_ context.Context, results []domain.ModelComparison) error {
	if len(results) == 0 {
		fmt.Fprintln(c.out, "no models produced enough forecasts to compare")
		return nil
	}

	sorted := append([]domain.ModelComparison(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CalibratedCRPS < sorted[j].CalibratedCRPS
	})

	fmt.Fprintln(c.out, "\n=== MODEL COMPARISON ===")
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Model", "N", "Raw CRPS", "Cal CRPS", "Spread", "MAE", "Cov80", "Cost")

	var total float64
	for i, r := range sorted {
		total += r.TotalCost
		table.Append(
			fmt.Sprintf("%d", i+1),
			r.Model,
			fmt.Sprintf("%d", r.NForecasts),
			fmt.Sprintf("%.4f", r.RawCRPS),
			fmt.Sprintf("%.4f", r.CalibratedCRPS),
			fmt.Sprintf("%.2f", r.SpreadMultiplier),
			fmt.Sprintf("%.2f", r.MAE),
			c.coverage(r.Coverage80, 0.80),
			fmt.Sprintf("$%.4f", r.TotalCost),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "  Best: %s | total cost $%.4f\n\n", c.good.Sprint(sorted[0].Model), total)
	return nil
}

// NotifyLongTerm imprime forecasts calibrados a largo plazo.
func (c *Console) NotifyLongTerm(_ context.Context, forecasts []domain.LongTermForecast) error {
	if len(forecasts) == 0 {
		fmt.Fprintln(c.out, "no long-term forecasts produced")
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Variable", "Year", "Model", "Median", "Raw Q10-Q90", "Cal 80% CI")
	for _, f := range forecasts {
		table.Append(
			f.Variable,
			fmt.Sprintf("%d", f.TargetYear),
			f.Model,
			fmt.Sprintf("%.1f%%", f.Calibrated.Median),
			fmt.Sprintf("[%.1f, %.1f]", f.Quantiles.Q10, f.Quantiles.Q90),
			fmt.Sprintf("[%.1f, %.1f]", f.Calibrated.CILower, f.Calibrated.CIUpper),
		)
	}
	table.Render()
	return nil
}

// printResults imprime cada forecast evaluado (modo verbose).
func (c *Console) printResults(results []domain.ForecastResult) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Variable", "Cutoff", "Year", "Model", "Pred", "Actual", "Err", "In 90%")
	for _, r := range results {
		in := c.bad.Sprint("no")
		if r.InInterval() {
			in = c.good.Sprint("yes")
		}
		table.Append(
			r.Variable,
			fmt.Sprintf("%d", r.CutoffYear),
			fmt.Sprintf("%d", r.TargetYear),
			r.Model,
			fmt.Sprintf("%.1f", r.Predicted),
			fmt.Sprintf("%.1f", r.Actual),
			fmt.Sprintf("%+.1f", r.Error()),
			in,
		)
	}
	table.Render()
}

// --- helpers ---

// coverage formatea una cobertura coloreada según su distancia al objetivo.
func (c *Console) coverage(got, target float64) string {
	s := fmt.Sprintf("%.0f%% (target %.0f%%)", got*100, target*100)
	switch d := math.Abs(got - target); {
	case d <= coverageTolerance/2:
		return c.good.Sprint(s)
	case d <= coverageTolerance:
		return c.warn.Sprint(s)
	default:
		return c.bad.Sprint(s)
	}
}

func spreadVerdict(mult float64) string {
	switch {
	case mult > 1.05:
		return "overconfident: intervals widened"
	case mult < 0.95:
		return "underconfident: intervals narrowed"
	default:
		return "well calibrated"
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("15:04:05")
}
