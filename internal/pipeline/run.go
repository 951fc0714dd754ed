// Package pipeline runs a full audit: load the input table, shape it into
// observations, run the enabled detection passes, and write the report
// files plus the YAML run summary.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/finloom/finaudit-cli/internal/config"
	"github.com/finloom/finaudit-cli/internal/crosstab"
	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/detect"
	"github.com/finloom/finaudit-cli/internal/report"
)

// Output file names written into the output directory.
const (
	FileCrosstabReport     = "crosstab_report.csv"
	FilePeerCrosstabReport = "peer_crosstab_report.csv"
	FileTimeSeriesLog      = "timeseries_log.csv"
	FilePeerGroupLog       = "peer_group_log.csv"
	FileRunSummary         = "run_summary.yaml"
)

// missingDimension replaces blank dimension cells so they still group.
const missingDimension = "N/A"

// Runner executes audits for one configuration.
type Runner struct {
	cfg *config.Audit
}

// NewRunner validates the configuration and returns a runner.
func NewRunner(cfg *config.Audit) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg}, nil
}

// Result reports what one run produced.
type Result struct {
	RunID    string
	Summary  *report.Summary
	Findings []detect.Finding
}

// Run audits inputPath and writes all outputs under outDir. The directory
// must exist; files are replaced atomically.
func (r *Runner) Run(inputPath, outDir string) (*Result, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Str("input", inputPath).Str("mode", string(r.cfg.InputMode)).Msg("audit started")

	t, err := dataset.LoadFile(inputPath, dataset.LoadOptions{
		SkipRows:   r.cfg.Crosstab.SkipRows,
		SheetName:  r.cfg.Crosstab.SheetName,
		SheetIndex: r.cfg.Crosstab.SheetIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}
	logger.Debug().Int("rows", t.Len()).Int("columns", len(t.Columns)).Msg("input loaded")

	long, err := r.prepare(t)
	if err != nil {
		return nil, err
	}

	sum := &report.Summary{
		RunID:     runID,
		StartedAt: started,
		Input:     inputPath,
		InputMode: string(r.cfg.InputMode),
		RowsRead:  t.Len(),
		Findings:  make(map[string]int),
	}
	res := &Result{RunID: runID, Summary: sum}

	if r.cfg.TimeSeries.Enabled {
		if err := r.runTimeSeries(long, outDir, sum, res); err != nil {
			return nil, err
		}
	}
	if r.cfg.PeerGroup.Enabled {
		if err := r.runPeerGroup(long, outDir, sum, res); err != nil {
			return nil, err
		}
	}

	sum.FinishedAt = time.Now().UTC()
	if err := sum.Write(filepath.Join(outDir, FileRunSummary)); err != nil {
		return nil, err
	}
	logger.Info().Int("findings", len(res.Findings)).
		Dur("elapsed", sum.FinishedAt.Sub(started)).Msg("audit complete")
	return res, nil
}

// prepare converts the input table to long format when needed and checks
// the columns both passes will read.
func (r *Runner) prepare(t *dataset.Table) (*dataset.Table, error) {
	if r.cfg.InputMode == config.InputCrosstab {
		mode, err := crosstab.ParseHeaderMode(r.cfg.Crosstab.HeaderMode)
		if err != nil {
			return nil, err
		}
		long, err := crosstab.Convert(t, r.cfg.Crosstab.IDColumns, r.cfg.ValueColumn, mode)
		if err != nil {
			return nil, fmt.Errorf("convert crosstab: %w", err)
		}
		return long, nil
	}
	if err := t.Require(r.cfg.ValueColumn, r.cfg.YearColumn, r.cfg.MonthColumn); err != nil {
		return nil, err
	}
	return t, nil
}

// observations extracts (keys, period, value) tuples for the given dimension
// columns. Rows with unparsable periods or missing values are skipped and
// counted; blank dimension cells become the N/A bucket so they still group.
func (r *Runner) observations(t *dataset.Table, dims []string) ([]detect.Observation, error) {
	if err := t.Require(dims...); err != nil {
		return nil, err
	}
	dimIdx := make([]int, len(dims))
	for i, d := range dims {
		dimIdx[i] = t.Index(d)
	}
	valIdx := t.Index(r.cfg.ValueColumn)
	yearIdx := t.Index(r.cfg.YearColumn)
	monthIdx := t.Index(r.cfg.MonthColumn)

	var out []detect.Observation
	var skippedPeriod, skippedValue int
	for i := 0; i < t.Len(); i++ {
		p, ok := parseRowPeriod(t.Cell(i, yearIdx), t.Cell(i, monthIdx))
		if !ok {
			skippedPeriod++
			continue
		}
		v, ok := dataset.ParseAmount(t.Cell(i, valIdx))
		if !ok {
			// Missing is not zero; the row simply has no observation.
			skippedValue++
			continue
		}
		keys := make([]string, len(dimIdx))
		for j, c := range dimIdx {
			keys[j] = t.Cell(i, c)
			if keys[j] == "" {
				keys[j] = missingDimension
			}
		}
		out = append(out, detect.Observation{Keys: keys, Period: p, Value: v})
	}
	if skippedPeriod > 0 || skippedValue > 0 {
		log.Debug().Int("bad_period", skippedPeriod).Int("missing_value", skippedValue).
			Msg("rows skipped while extracting observations")
	}
	return out, nil
}

// parseRowPeriod reads the year/month pair of one long-format row. The year
// cell may itself be a full date string.
func parseRowPeriod(yearCell, monthCell string) (detect.Period, bool) {
	year, errY := strconv.Atoi(yearCell)
	month, errM := strconv.Atoi(monthCell)
	if errY == nil && errM == nil {
		p := detect.NewPeriod(year, month)
		return p, p.Valid()
	}
	if p, ok := detect.ParsePeriod(yearCell); ok {
		return p, true
	}
	return detect.Period{}, false
}

func (r *Runner) runTimeSeries(long *dataset.Table, outDir string, sum *report.Summary, res *Result) error {
	obs, err := r.observations(long, r.cfg.TimeSeries.Dimensions)
	if err != nil {
		return fmt.Errorf("time-series pass: %w", err)
	}
	series := detect.BuildSeries(obs)
	sum.Series = len(series)

	findings := detect.NewTimeSeriesDetector(&r.cfg.TimeSeries.TimeSeriesConfig).Scan(series)
	res.Findings = append(res.Findings, findings...)
	tally(sum, findings)

	grid := report.NewGrid(r.cfg.TimeSeries.Dimensions, obs)
	grid.Mark(findings)
	if err := r.writeTable(outDir, FileCrosstabReport, grid.Table(), sum); err != nil {
		return err
	}
	logTable := report.AuditLog(r.cfg.TimeSeries.Dimensions, findings, r.cfg.Report.IncludeNewItems)
	return r.writeTable(outDir, FileTimeSeriesLog, logTable, sum)
}

func (r *Runner) runPeerGroup(long *dataset.Table, outDir string, sum *report.Summary, res *Result) error {
	dims := append(append([]string{}, r.cfg.PeerGroup.GroupColumns...), r.cfg.PeerGroup.ItemColumn)
	obs, err := r.observations(long, dims)
	if err != nil {
		return fmt.Errorf("peer-group pass: %w", err)
	}
	groups := detect.BuildPeerGroups(obs)
	sum.PeerGroups = len(groups)

	findings := detect.NewPeerDetector(&r.cfg.PeerGroup.PeerConfig).Scan(groups)
	res.Findings = append(res.Findings, findings...)
	tally(sum, findings)

	grid := report.NewGrid(dims, obs)
	grid.Mark(findings)
	if err := r.writeTable(outDir, FilePeerCrosstabReport, grid.Table(), sum); err != nil {
		return err
	}
	logTable := report.AuditLog(dims, findings, r.cfg.Report.IncludeNewItems)
	return r.writeTable(outDir, FilePeerGroupLog, logTable, sum)
}

func (r *Runner) writeTable(outDir, name string, t *dataset.Table, sum *report.Summary) error {
	path := filepath.Join(outDir, name)
	if err := dataset.WriteCSV(path, t); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	sum.Outputs = append(sum.Outputs, path)
	log.Debug().Str("file", path).Int("rows", t.Len()).Msg("report written")
	return nil
}

func tally(sum *report.Summary, findings []detect.Finding) {
	for _, f := range findings {
		if f.Kind == detect.KindNormal {
			continue
		}
		sum.Findings[string(f.Kind)]++
	}
}
