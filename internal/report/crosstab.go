// Package report assembles audit outputs: wide crosstab reports with
// per-cell anomaly kinds, flat audit logs, and the YAML run summary.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/detect"
)

// Column names appended after the period columns of a rendered grid.
const (
	ColStatus        = "STATUS"
	ColLatestValue   = "LATEST_VALUE"
	ColAvgHistorical = "AVG_HISTORICAL"
	ColPctChange     = "PCT_CHANGE"
)

// Cell is one grid position. Kind is empty until a finding marks the cell;
// an empty kind renders as normal.
type Cell struct {
	Value float64
	Kind  detect.Kind
}

// Row is one dimension-key combination with its cells keyed by period.
type Row struct {
	Keys  []string
	Cells map[detect.Period]Cell
}

// Grid is the wide anomaly report: one row per dimension-key tuple, one
// column per observed period, each cell carrying its value and judged kind.
// Rows are sorted by key tuple and periods ascending, so rendering is
// deterministic across runs.
type Grid struct {
	// KeyColumns are the dimension column names, in configured order.
	KeyColumns []string
	Periods    []detect.Period
	Rows       []Row

	rowIndex map[string]int
}

const gridKeySep = "\x1f"

// NewGrid pivots long-format observations into a wide grid. Duplicate
// (keys, period) observations are summed, matching series construction.
func NewGrid(keyColumns []string, obs []detect.Observation) *Grid {
	g := &Grid{KeyColumns: keyColumns, rowIndex: make(map[string]int)}
	periods := make(map[detect.Period]struct{})
	for _, o := range obs {
		k := strings.Join(o.Keys, gridKeySep)
		i, ok := g.rowIndex[k]
		if !ok {
			i = len(g.Rows)
			g.rowIndex[k] = i
			g.Rows = append(g.Rows, Row{Keys: o.Keys, Cells: make(map[detect.Period]Cell)})
		}
		c := g.Rows[i].Cells[o.Period]
		c.Value += o.Value
		g.Rows[i].Cells[o.Period] = c
		periods[o.Period] = struct{}{}
	}

	for p := range periods {
		g.Periods = append(g.Periods, p)
	}
	sort.Slice(g.Periods, func(i, j int) bool { return g.Periods[i].Before(g.Periods[j]) })
	sort.Slice(g.Rows, func(i, j int) bool {
		return strings.Join(g.Rows[i].Keys, gridKeySep) < strings.Join(g.Rows[j].Keys, gridKeySep)
	})
	for i, r := range g.Rows {
		g.rowIndex[strings.Join(r.Keys, gridKeySep)] = i
	}
	return g
}

// Mark overlays finding kinds onto existing cells. Findings for cells the
// grid does not contain are ignored; values are never changed by marking.
func (g *Grid) Mark(findings []detect.Finding) {
	for _, f := range findings {
		i, ok := g.rowIndex[strings.Join(f.Keys, gridKeySep)]
		if !ok {
			continue
		}
		c, ok := g.Rows[i].Cells[f.Period]
		if !ok {
			continue
		}
		c.Kind = f.Kind
		g.Rows[i].Cells[f.Period] = c
	}
}

// Cell returns the cell for a key tuple and period.
func (g *Grid) Cell(keys []string, p detect.Period) (Cell, bool) {
	i, ok := g.rowIndex[strings.Join(keys, gridKeySep)]
	if !ok {
		return Cell{}, false
	}
	c, ok := g.Rows[i].Cells[p]
	return c, ok
}

// Observations unpivots the grid back to long format, row by row in grid
// order. Missing cells produce no observation.
func (g *Grid) Observations() []detect.Observation {
	var out []detect.Observation
	for _, r := range g.Rows {
		for _, p := range g.Periods {
			c, ok := r.Cells[p]
			if !ok {
				continue
			}
			out = append(out, detect.Observation{Keys: r.Keys, Period: p, Value: c.Value})
		}
	}
	return out
}

// Table renders the grid: key columns, one column per period, then the
// latest-period status columns. Missing cells render empty; values keep
// full float precision so the table round-trips.
func (g *Grid) Table() *dataset.Table {
	cols := make([]string, 0, len(g.KeyColumns)+len(g.Periods)+4)
	cols = append(cols, g.KeyColumns...)
	for _, p := range g.Periods {
		cols = append(cols, p.String())
	}
	cols = append(cols, ColStatus, ColLatestValue, ColAvgHistorical, ColPctChange)
	t := dataset.New(cols)

	for _, r := range g.Rows {
		row := make([]string, 0, len(cols))
		row = append(row, r.Keys...)
		for _, p := range g.Periods {
			c, ok := r.Cells[p]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(c.Value))
		}
		row = append(row, g.statusColumns(r)...)
		t.Append(row)
	}
	return t
}

// statusColumns summarizes the row at the most recent period of the grid.
func (g *Grid) statusColumns(r Row) []string {
	if len(g.Periods) == 0 {
		return []string{"", "", "", ""}
	}
	latest := g.Periods[len(g.Periods)-1]
	lc, ok := r.Cells[latest]
	if !ok {
		return []string{"no_data", "", "", ""}
	}
	status := string(lc.Kind)
	if status == "" {
		status = string(detect.KindNormal)
	}

	var sum float64
	var n int
	for _, p := range g.Periods[:len(g.Periods)-1] {
		if c, ok := r.Cells[p]; ok {
			sum += c.Value
			n++
		}
	}
	if n == 0 {
		return []string{status, formatValue(lc.Value), "", ""}
	}
	avg := sum / float64(n)
	pct := ""
	if avg != 0 {
		pct = fmt.Sprintf("%.2f", (lc.Value-avg)/avg*100)
	}
	return []string{status, formatValue(lc.Value), fmt.Sprintf("%.2f", avg), pct}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
