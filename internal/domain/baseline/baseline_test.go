package baseline_test

import (
	"math"
	"testing"

	"github.com/alejandrodnm/valuecast/internal/domain"
	"github.com/alejandrodnm/valuecast/internal/domain/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threePoints() domain.Trajectory {
	return domain.Trajectory{1990: 13, 2000: 27, 2010: 41}
}

func request(traj domain.Trajectory, cutoff int, targets ...int) domain.ForecastRequest {
	return domain.ForecastRequest{Variable: "HOMOSEX", Trajectory: traj, CutoffYear: cutoff, TargetYears: targets}
}

func assertBounded(t *testing.T, fs []domain.Forecast) {
	t.Helper()
	for _, f := range fs {
		assert.GreaterOrEqual(t, f.LowerBound, 0.0, "%s %d", f.Model, f.TargetYear)
		assert.LessOrEqual(t, f.LowerBound, f.PointEstimate, "%s %d", f.Model, f.TargetYear)
		assert.LessOrEqual(t, f.PointEstimate, f.UpperBound, "%s %d", f.Model, f.TargetYear)
		assert.LessOrEqual(t, f.UpperBound, 100.0, "%s %d", f.Model, f.TargetYear)
	}
}

// --- naive ---

func TestNaive_CarriesLastValue(t *testing.T) {
	fs := baseline.NewNaive().Forecast(request(threePoints(), 2010, 2020))
	require.Len(t, fs, 1)

	f := fs[0]
	assert.Equal(t, 41.0, f.PointEstimate)
	assert.Equal(t, "naive", f.Model)
	assert.Equal(t, "Last value: 41", f.RawResponse)
	assert.Equal(t, 2010, f.CutoffYear)
	assert.Equal(t, 2020, f.TargetYear)

	d1 := domain.PercentToLogit(27) - domain.PercentToLogit(13)
	d2 := domain.PercentToLogit(41) - domain.PercentToLogit(27)
	std := math.Abs(d1-d2) / 2
	u := std * math.Sqrt(1) * 1.645
	assert.InDelta(t, domain.LogitToPercent(domain.PercentToLogit(41)-u), f.LowerBound, 1e-9)
	assert.InDelta(t, domain.LogitToPercent(domain.PercentToLogit(41)+u), f.UpperBound, 1e-9)
}

func TestNaive_DecadeAheadFromSurveyHistory(t *testing.T) {
	traj := domain.Trajectory{1990: 13, 2000: 27, 2010: 41, 2018: 58}
	fs := baseline.NewNaive().Forecast(request(traj, 2010, 2020))
	require.Len(t, fs, 1)

	f := fs[0]
	assert.Equal(t, 41.0, f.PointEstimate)
	assert.InDelta(t, 35.65, f.LowerBound, 0.01)
	assert.InDelta(t, 46.57, f.UpperBound, 0.01)
	assert.Less(t, f.LowerBound, f.PointEstimate)
	assert.Less(t, f.PointEstimate, f.UpperBound)
}

func TestNaive_SinglePointUsesDefaultVolatility(t *testing.T) {
	fs := baseline.NewNaive().Forecast(request(domain.Trajectory{2000: 50}, 2000, 2010))
	require.Len(t, fs, 1)
	u := domain.DefaultLogitStd * 1.645
	assert.InDelta(t, domain.LogitToPercent(u), fs[0].UpperBound, 1e-9)
}

func TestNaive_IgnoresPostCutoffData(t *testing.T) {
	traj := threePoints()
	traj[2018] = 90
	fs := baseline.NewNaive().Forecast(request(traj, 2010, 2020))
	require.Len(t, fs, 1)
	assert.Equal(t, 41.0, fs[0].PointEstimate)
}

func TestNaive_EmptyHistory(t *testing.T) {
	assert.Empty(t, baseline.NewNaive().Forecast(request(threePoints(), 1980, 2020)))
	assert.Empty(t, baseline.NewNaive().Forecast(request(domain.Trajectory{}, 2010, 2020)))
}

func TestNaive_IntervalGrowsWithHorizon(t *testing.T) {
	fs := baseline.NewNaive().Forecast(request(threePoints(), 2010, 2020, 2050))
	require.Len(t, fs, 2)
	assert.Greater(t, fs[1].Width(), fs[0].Width())
}

// --- linear ---

func TestLinear_ExtrapolatesTrend(t *testing.T) {
	fs := baseline.NewLinear().Forecast(request(threePoints(), 2010, 2020))
	require.Len(t, fs, 1)
	f := fs[0]
	assert.Equal(t, "linear_logit", f.Model)
	assert.Greater(t, f.PointEstimate, 41.0)
	assert.Contains(t, f.RawResponse, "Logit linear: slope=")
	assertBounded(t, fs)
}

func TestLinear_NeedsThreePoints(t *testing.T) {
	assert.Empty(t, baseline.NewLinear().Forecast(request(domain.Trajectory{2000: 27, 2010: 41}, 2010, 2020)))
}

// --- arima ---

func TestARIMA_NeedsFourPoints(t *testing.T) {
	assert.Empty(t, baseline.NewARIMA(baseline.DefaultARIMAOrder).Forecast(request(threePoints(), 2010, 2020)))
}

func TestARIMA_IndexesByObservationStep(t *testing.T) {
	traj := domain.Trajectory{1990: 13, 2000: 27, 2010: 41, 2018: 58}
	fs := baseline.NewARIMA(baseline.DefaultARIMAOrder).Forecast(request(traj, 2018, 2019, 2018, 2021, 2100))
	require.Len(t, fs, 3)

	assert.Equal(t, 2019, fs[0].TargetYear)
	assert.Equal(t, 2021, fs[1].TargetYear)
	assert.Equal(t, 2100, fs[2].TargetYear)
	assert.Contains(t, fs[0].RawResponse, "ARIMA(1, 1, 0) logit:")
	assertBounded(t, fs)
}

func TestARIMA_FlatHistoryWithLateMove(t *testing.T) {
	traj := domain.Trajectory{1972: 30, 1974: 30, 1976: 30, 1978: 31}
	fs := baseline.NewARIMA(baseline.DefaultARIMAOrder).Forecast(request(traj, 1978, 1980))
	require.Len(t, fs, 1)
	assert.InDelta(t, 31.0, fs[0].PointEstimate, 1e-9)
	assert.Greater(t, fs[0].Width(), 0.0)
	assertBounded(t, fs)
}

func TestARIMA_FitFailureIsEmpty(t *testing.T) {
	traj := domain.Trajectory{1990: 40, 2000: 40, 2010: 40, 2018: 40}
	assert.Empty(t, baseline.NewARIMA(baseline.DefaultARIMAOrder).Forecast(request(traj, 2018, 2020)))
}

// --- ets ---

func TestETS_Forecast(t *testing.T) {
	fs := baseline.NewETS().Forecast(request(threePoints(), 2010, 2011, 2015))
	require.Len(t, fs, 2)
	assert.Equal(t, "ets_logit", fs[0].Model)
	assert.Contains(t, fs[0].RawResponse, "ETS logit forecast:")
	assert.Equal(t, 2015, fs[1].TargetYear)
	assertBounded(t, fs)
}

func TestETS_SkipsTargetsNotAfterLastYear(t *testing.T) {
	fs := baseline.NewETS().Forecast(request(threePoints(), 2010, 2005, 2010))
	assert.Empty(t, fs)
}

func TestETS_NeedsThreePoints(t *testing.T) {
	assert.Empty(t, baseline.NewETS().Forecast(request(domain.Trajectory{2000: 27, 2010: 41}, 2010, 2020)))
}

// --- shared properties ---

func TestAllForecasters_StayInBoundsAtExtremes(t *testing.T) {
	traj := domain.Trajectory{1972: 0, 1980: 3, 1990: 40, 2000: 97, 2010: 100, 2018: 100}
	set, err := baseline.NewSet(nil, baseline.DefaultConfig())
	require.NoError(t, err)

	for _, f := range set {
		fs := f.Forecast(request(traj, 2018, 2020, 2050, 2100))
		assertBounded(t, fs)
		for _, fc := range fs {
			assert.False(t, math.IsNaN(fc.PointEstimate))
		}
	}
}

func TestNew_UnknownName(t *testing.T) {
	_, err := baseline.New("prophet", baseline.DefaultConfig())
	assert.ErrorIs(t, err, baseline.ErrUnknownForecaster)
}

func TestNew_AcceptsShortNamesAndLabels(t *testing.T) {
	for name, want := range map[string]string{
		"naive":            domain.ModelNaive,
		"linear":           domain.ModelLinear,
		domain.ModelLinear: domain.ModelLinear,
		"ARIMA":            domain.ModelARIMA,
		domain.ModelARIMA:  domain.ModelARIMA,
		"ets":              domain.ModelETS,
		domain.ModelETS:    domain.ModelETS,
	} {
		f, err := baseline.New(name, baseline.DefaultConfig())
		require.NoError(t, err, name)
		assert.Equal(t, want, f.Name(), name)
	}
}

func TestNewSet_DefaultsToAllFour(t *testing.T) {
	set, err := baseline.NewSet(nil, baseline.DefaultConfig())
	require.NoError(t, err)
	names := make([]string, len(set))
	for i, f := range set {
		names[i] = f.Name()
	}
	assert.Equal(t, []string{"naive", "linear_logit", "arima_logit", "ets_logit"}, names)
}
