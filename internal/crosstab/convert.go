// Package crosstab converts pivot-style tables (one column per month) into
// the long format the detection engine consumes.
package crosstab

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/detect"
)

// HeaderMode says how non-identifier column headers are interpreted.
type HeaderMode string

const (
	// HeaderAuto classifies headers as dates only when every non-id header
	// parses as a calendar period; anything else falls back to sequential.
	HeaderAuto HeaderMode = "auto"
	// HeaderDate requires every non-id header to parse as a calendar period.
	HeaderDate HeaderMode = "date"
	// HeaderSequential marks ordinal headers (1, 2, 3 or month labels without
	// a year). No calendar period can be derived from them, so this mode is
	// rejected rather than guessed at.
	HeaderSequential HeaderMode = "sequential"
)

// ParseHeaderMode validates a mode string.
func ParseHeaderMode(s string) (HeaderMode, error) {
	switch HeaderMode(strings.ToLower(strings.TrimSpace(s))) {
	case HeaderAuto:
		return HeaderAuto, nil
	case HeaderDate:
		return HeaderDate, nil
	case HeaderSequential:
		return HeaderSequential, nil
	}
	return "", fmt.Errorf("unknown header mode %q (use auto|date|sequential)", s)
}

// ErrSequentialHeaders is returned when a crosstab with ordinal column
// headers is routed into the calendar pipeline. Deliberate product
// limitation: inventing an ordinal-to-calendar mapping would silently
// mis-assign periods.
var ErrSequentialHeaders = errors.New("crosstab has sequential (non-date) column headers: " +
	"time-series analysis needs calendar periods; re-export the data with date headers " +
	"(e.g. 2025-01) or pass an explicit header mode")

// Long column names synthesized by Convert.
const (
	ColYear  = "YEAR"
	ColMonth = "MONTH"
	ColDate  = "DATE"
)

// Convert reshapes a crosstab table into long format: one output row per
// (id columns, period) with a non-missing value. idColumns become the leading
// output columns, followed by YEAR, MONTH, DATE (first of month) and the
// value column. Cells that do not parse as amounts are dropped, not zeroed;
// a missing month must not bias rolling statistics.
func Convert(t *dataset.Table, idColumns []string, valueName string, mode HeaderMode) (*dataset.Table, error) {
	if len(idColumns) == 0 {
		return nil, errors.New("crosstab conversion needs at least one identifier column")
	}
	if valueName == "" {
		valueName = "VALUE"
	}
	if err := t.Require(idColumns...); err != nil {
		return nil, err
	}

	idIdx := make([]int, len(idColumns))
	isID := make(map[int]bool, len(idColumns))
	for i, c := range idColumns {
		idIdx[i] = t.Index(c)
		isID[idIdx[i]] = true
	}

	// Classify the remaining headers.
	type periodCol struct {
		idx    int
		period detect.Period
	}
	var periodCols []periodCol
	var unparsable []string
	for i, h := range t.Columns {
		if isID[i] {
			continue
		}
		p, ok := detect.ParsePeriod(strings.TrimSpace(h))
		if !ok {
			unparsable = append(unparsable, h)
			continue
		}
		periodCols = append(periodCols, periodCol{idx: i, period: p})
	}

	switch mode {
	case HeaderSequential:
		return nil, ErrSequentialHeaders
	case HeaderDate:
		if len(unparsable) > 0 {
			return nil, fmt.Errorf("header mode is date but %d column header(s) are not calendar periods: %s",
				len(unparsable), strings.Join(unparsable, ", "))
		}
	case HeaderAuto:
		if len(unparsable) > 0 || len(periodCols) == 0 {
			return nil, fmt.Errorf("%w (unrecognized headers: %s)", ErrSequentialHeaders, strings.Join(unparsable, ", "))
		}
	default:
		return nil, fmt.Errorf("unknown header mode %q", mode)
	}

	outCols := make([]string, 0, len(idColumns)+4)
	for _, i := range idIdx {
		outCols = append(outCols, strings.TrimSpace(t.Columns[i]))
	}
	outCols = append(outCols, ColYear, ColMonth, ColDate, valueName)
	long := dataset.New(outCols)

	dropped := 0
	for r := range t.Rows {
		for _, pc := range periodCols {
			v, ok := dataset.ParseAmount(t.Cell(r, pc.idx))
			if !ok {
				dropped++
				continue
			}
			row := make([]string, 0, len(outCols))
			for _, i := range idIdx {
				row = append(row, t.Cell(r, i))
			}
			row = append(row,
				strconv.Itoa(pc.period.Year),
				strconv.Itoa(int(pc.period.Month)),
				pc.period.FirstDay().Format("2006-01-02"),
				strconv.FormatFloat(v, 'f', -1, 64),
			)
			long.Append(row)
		}
	}
	log.Debug().Int("rows", long.Len()).Int("periods", len(periodCols)).Int("missing_cells", dropped).
		Msg("crosstab converted to long format")
	return long, nil
}
