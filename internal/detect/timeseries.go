package detect

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// TimeSeriesConfig holds rolling-window detector parameters.
type TimeSeriesConfig struct {
	// Window is the number of trailing observations judged against.
	Window int `mapstructure:"window" yaml:"window"`
	// MinHistory is the minimum trailing count required before any IQR
	// judgment; below it the period is a new_item.
	MinHistory int `mapstructure:"min_history" yaml:"min_history"`
	// Multiplier widens the IQR fences: upper = Q3 + multiplier*IQR.
	Multiplier float64 `mapstructure:"multiplier" yaml:"multiplier"`
	// Workers bounds the scan fan-out across series; <=0 uses GOMAXPROCS.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// DefaultTimeSeriesConfig returns the standard parameters: a 6-month window,
// 3 months minimum history, 1.5x IQR fences.
func DefaultTimeSeriesConfig() *TimeSeriesConfig {
	return &TimeSeriesConfig{Window: 6, MinHistory: 3, Multiplier: 1.5}
}

// TimeSeriesDetector judges every observation of every series against the
// trailing window of its own history using IQR fences.
type TimeSeriesDetector struct {
	cfg TimeSeriesConfig
}

// NewTimeSeriesDetector creates a detector; nil config selects defaults.
func NewTimeSeriesDetector(cfg *TimeSeriesConfig) *TimeSeriesDetector {
	c := DefaultTimeSeriesConfig()
	if cfg != nil {
		c = cfg
	}
	d := &TimeSeriesDetector{cfg: *c}
	if d.cfg.Window <= 0 {
		d.cfg.Window = 6
	}
	if d.cfg.MinHistory <= 0 {
		d.cfg.MinHistory = 3
	}
	if d.cfg.Multiplier <= 0 {
		d.cfg.Multiplier = 1.5
	}
	return d
}

// Scan runs the batch pass: one finding per (series, period). Series are
// scanned concurrently (each is independent); within a series, periods are
// judged in order using only strictly earlier points. Output order is
// deterministic: series order, then period order.
func (d *TimeSeriesDetector) Scan(series []Series) []Finding {
	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(series) {
		workers = len(series)
	}
	if workers < 1 {
		workers = 1
	}

	perSeries := make([][]Finding, len(series))
	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				perSeries[i] = d.scanSeries(series[i])
			}
		}()
	}
	for i := range series {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var out []Finding
	for _, fs := range perSeries {
		out = append(out, fs...)
	}
	log.Debug().Int("series", len(series)).Int("findings", len(out)).
		Msg("time-series scan complete")
	return out
}

func (d *TimeSeriesDetector) scanSeries(s Series) []Finding {
	findings := make([]Finding, 0, len(s.Points))
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	for i, p := range s.Points {
		f := d.judge(trailing(values, i, d.cfg.Window), p.Value)
		f.Keys = s.Keys
		f.Period = p.Period
		findings = append(findings, f)
	}
	return findings
}

// trailing returns up to window values strictly before index i.
func trailing(values []float64, i, window int) []float64 {
	lo := i - window
	if lo < 0 {
		lo = 0
	}
	return values[lo:i]
}

// judge classifies one value against its trailing history. Pure function:
// identical inputs always produce the identical finding.
func (d *TimeSeriesDetector) judge(history []float64, value float64) Finding {
	f := Finding{Value: value, Method: MethodTimeSeries}

	if len(history) < d.cfg.MinHistory {
		f.Kind = KindNewItem
		f.ComparedWith = fmt.Sprintf("insufficient history (%d of %d months)", len(history), d.cfg.MinHistory)
		return f
	}

	sorted := sortedCopy(history)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	upper := q3 + d.cfg.Multiplier*iqr
	lower := q1 - d.cfg.Multiplier*iqr
	m := mean(history)
	f.WindowMean = m

	switch {
	case value < 0:
		// A negative amount is always flagged, wherever it sits in the fences.
		f.Kind = KindNegativeValue
		f.Baseline = m
		f.ComparedWith = fmt.Sprintf("negative amount vs window mean %.2f (n=%d)", m, len(history))
	case value > upper:
		f.Kind = KindHighSpike
		f.Baseline = upper
		f.ComparedWith = fmt.Sprintf("above upper bound %.2f (window mean %.2f, n=%d)", upper, m, len(history))
	case value < lower:
		f.Kind = KindLowDrop
		f.Baseline = lower
		f.ComparedWith = fmt.Sprintf("below lower bound %.2f (window mean %.2f, n=%d)", lower, m, len(history))
	default:
		f.Kind = KindNormal
		f.Baseline = m
		f.ComparedWith = fmt.Sprintf("within bounds [%.2f, %.2f]", lower, upper)
	}
	return f
}
