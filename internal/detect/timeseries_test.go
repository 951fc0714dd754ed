package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSeries(keys []string, startYear, startMonth int, values ...float64) Series {
	s := Series{Keys: keys}
	y, m := startYear, startMonth
	for _, v := range values {
		s.Points = append(s.Points, Point{Period: NewPeriod(y, m), Value: v})
		m++
		if m > 12 {
			m = 1
			y++
		}
	}
	return s
}

func TestJudgeInsufficientHistory(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	// First three periods have fewer than three months behind them.
	s := makeSeries([]string{"IT", "Software"}, 2025, 1, 100, 105, 95, 102)
	findings := d.Scan([]Series{s})
	require.Len(t, findings, 4)

	assert.Equal(t, KindNewItem, findings[0].Kind)
	assert.Equal(t, KindNewItem, findings[1].Kind)
	assert.Equal(t, KindNewItem, findings[2].Kind)
	assert.Equal(t, KindNormal, findings[3].Kind, "fourth period has exactly min_history behind it")
}

func TestJudgeHighSpike(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	s := makeSeries([]string{"IT", "Software"}, 2025, 1, 100, 102, 98, 101, 99, 97, 500)
	findings := d.Scan([]Series{s})
	require.Len(t, findings, 7)

	last := findings[6]
	assert.Equal(t, KindHighSpike, last.Kind)
	assert.Equal(t, MethodTimeSeries, last.Method)
	// History [100 102 98 101 99 97]: Q1=98.25, Q3=100.75, IQR=2.5,
	// upper fence 100.75 + 1.5*2.5 = 104.5.
	assert.InDelta(t, 104.5, last.Baseline, 1e-9)
	assert.InDelta(t, 99.5, last.WindowMean, 1e-9)
	assert.Equal(t, NewPeriod(2025, 7), last.Period)
}

func TestJudgeLowDrop(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	s := makeSeries([]string{"HR"}, 2025, 1, 100, 101, 102, 98)
	findings := d.Scan([]Series{s})
	require.Len(t, findings, 4)

	last := findings[3]
	assert.Equal(t, KindLowDrop, last.Kind)
	// History [100 101 102]: Q1=100.5, Q3=101.5, lower fence 99.
	assert.InDelta(t, 99.0, last.Baseline, 1e-9)
}

func TestJudgeBoundaryIsNormal(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	// History [100 101 102] gives fences [99, 103]. A value exactly on a
	// fence is inside it.
	upper := d.judge([]float64{100, 101, 102}, 103)
	assert.Equal(t, KindNormal, upper.Kind)
	lower := d.judge([]float64{100, 101, 102}, 99)
	assert.Equal(t, KindNormal, lower.Kind)

	above := d.judge([]float64{100, 101, 102}, 103.01)
	assert.Equal(t, KindHighSpike, above.Kind)
}

func TestJudgeNegativeTakesPrecedence(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	// -50 sits inside the fences of its own history, yet a negative amount
	// is still flagged.
	f := d.judge([]float64{-60, -50, -40}, -50)
	assert.Equal(t, KindNegativeValue, f.Kind)
	assert.InDelta(t, -50.0, f.Baseline, 1e-9, "baseline is the window mean")

	// A negative beyond the lower fence is still negative_value, not low_drop.
	f = d.judge([]float64{100, 101, 102}, -5)
	assert.Equal(t, KindNegativeValue, f.Kind)
}

func TestJudgeZeroIQRFlagsAnyDeviation(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	// Constant history collapses the fences onto the constant.
	f := d.judge([]float64{100, 100, 100}, 100)
	assert.Equal(t, KindNormal, f.Kind)
	f = d.judge([]float64{100, 100, 100}, 100.5)
	assert.Equal(t, KindHighSpike, f.Kind)
	f = d.judge([]float64{100, 100, 100}, 99.5)
	assert.Equal(t, KindLowDrop, f.Kind)
}

func TestTrailingWindowExcludesCurrent(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Empty(t, trailing(vals, 0, 6))
	assert.Equal(t, []float64{1, 2}, trailing(vals, 2, 6))
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7}, trailing(vals, 7, 6))
}

func TestScanDeterministicAcrossWorkerCounts(t *testing.T) {
	series := []Series{
		makeSeries([]string{"A"}, 2024, 1, 10, 12, 11, 13, 9, 300),
		makeSeries([]string{"B"}, 2024, 1, 50, 55, 52, 51, 53, 54, 48),
		makeSeries([]string{"C"}, 2024, 6, 7, 7, 7, 7, 20),
	}

	one := NewTimeSeriesDetector(&TimeSeriesConfig{Window: 6, MinHistory: 3, Multiplier: 1.5, Workers: 1}).Scan(series)
	four := NewTimeSeriesDetector(&TimeSeriesConfig{Window: 6, MinHistory: 3, Multiplier: 1.5, Workers: 4}).Scan(series)
	assert.Equal(t, one, four)
}

func TestScanMissingMonthsNotZeroFilled(t *testing.T) {
	d := NewTimeSeriesDetector(nil)

	// A gap between March and June must not inject zeros into the history.
	s := Series{Keys: []string{"A"}, Points: []Point{
		{Period: NewPeriod(2025, 1), Value: 100},
		{Period: NewPeriod(2025, 2), Value: 101},
		{Period: NewPeriod(2025, 3), Value: 102},
		{Period: NewPeriod(2025, 6), Value: 101},
	}}
	findings := d.Scan([]Series{s})
	require.Len(t, findings, 4)
	assert.Equal(t, KindNormal, findings[3].Kind,
		"zero-filled gaps would drag the fences down and flag 101")
}
