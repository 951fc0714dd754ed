// Package inspect profiles a loaded table so an analyst can see what they
// have before configuring an audit: per-column kind, null rate, uniques,
// numeric spread, and a suggested starting configuration.
package inspect

import (
	"math"
	"sort"
	"strings"

	"github.com/finloom/finaudit-cli/internal/config"
	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/detect"
)

// Column kinds inferred from cell contents.
const (
	KindNumeric     = "numeric"
	KindDate        = "date"
	KindCategorical = "categorical"
	KindID          = "id"
	KindText        = "text"
	KindEmpty       = "empty"
)

// maxTrackedCategories caps the per-column distinct-value map.
const maxTrackedCategories = 10000

// ColumnProfile captures inferred type and statistics for one column.
type ColumnProfile struct {
	Name    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats (Kind == numeric only).
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// TopValues lists the most frequent values of categorical columns.
	TopValues []ValueCount
	Samples   []string
}

// ValueCount is one distinct value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// Profile is the analysis of one table.
type Profile struct {
	Rows    int
	Columns []ColumnProfile
}

// Analyze profiles every column of the table.
func Analyze(t *dataset.Table) *Profile {
	p := &Profile{Rows: t.Len()}
	for j, name := range t.Columns {
		p.Columns = append(p.Columns, profileColumn(t, j, name))
	}
	return p
}

func profileColumn(t *dataset.Table, col int, name string) ColumnProfile {
	c := ColumnProfile{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
	seen := make(map[string]int)
	var numCnt, dateCnt, textCnt int
	// Welford accumulators.
	var n int
	var mean, m2 float64

	for i := 0; i < t.Len(); i++ {
		v := t.Cell(i, col)
		if v == "" {
			c.Missing++
			continue
		}
		c.NonNull++
		if len(seen) < maxTrackedCategories {
			seen[v]++
		}
		if len(c.Samples) < 3 && !containsValue(c.Samples, v) {
			c.Samples = append(c.Samples, v)
		}
		if x, ok := dataset.ParseAmount(v); ok {
			numCnt++
			n++
			if x < c.Min {
				c.Min = x
			}
			if x > c.Max {
				c.Max = x
			}
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			continue
		}
		if _, ok := detect.ParsePeriod(v); ok {
			dateCnt++
			continue
		}
		textCnt++
	}

	c.Unique = len(seen)
	c.Kind = classify(c.NonNull, numCnt, dateCnt, textCnt, c.Unique)
	if c.Kind == KindNumeric && n > 0 {
		c.Mean = mean
		if n > 1 {
			c.Std = math.Sqrt(m2 / float64(n-1))
		}
	} else {
		c.Min, c.Max = 0, 0
	}
	if c.Kind == KindCategorical {
		c.TopValues = topValues(seen, 5)
	}
	return c
}

// classify decides the column kind by majority of parsed cells. A column
// where nearly every value is distinct is an identifier, not a category.
func classify(nonNull, numCnt, dateCnt, textCnt, unique int) string {
	if nonNull == 0 {
		return KindEmpty
	}
	threshold := nonNull * 8 / 10
	switch {
	case numCnt >= threshold && numCnt >= dateCnt:
		return KindNumeric
	case dateCnt >= threshold:
		return KindDate
	}
	if unique >= nonNull*9/10 && nonNull >= 10 {
		return KindID
	}
	if unique <= 50 || unique*10 <= nonNull {
		return KindCategorical
	}
	return KindText
}

func topValues(seen map[string]int, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(seen))
	for v, n := range seen {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func containsValue(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Recommend proposes a starting audit configuration from a profile. It is a
// heuristic first draft for the analyst to edit, not a final answer.
func Recommend(p *Profile, columns []string) *config.Audit {
	c := config.Default()

	var dateHeaders, numericCols, catCols []string
	byName := make(map[string]ColumnProfile, len(p.Columns))
	for _, cp := range p.Columns {
		byName[cp.Name] = cp
	}
	for _, name := range columns {
		cp := byName[name]
		if _, ok := detect.ParsePeriod(name); ok {
			dateHeaders = append(dateHeaders, name)
			continue
		}
		switch cp.Kind {
		case KindNumeric:
			numericCols = append(numericCols, name)
		case KindCategorical, KindID:
			catCols = append(catCols, name)
		}
	}

	// Several date-parseable headers mean the table itself is a crosstab.
	if len(dateHeaders) >= 2 {
		c.InputMode = config.InputCrosstab
		c.Crosstab.IDColumns = catCols
		c.TimeSeries.Dimensions = catCols
		if len(catCols) > 1 {
			c.PeerGroup.GroupColumns = catCols[:len(catCols)-1]
			c.PeerGroup.ItemColumn = catCols[len(catCols)-1]
		} else {
			c.PeerGroup.Enabled = false
		}
		return c
	}

	c.InputMode = config.InputLong
	yearCol, monthCol := findPeriodColumns(columns)
	if yearCol != "" {
		c.YearColumn = yearCol
	}
	if monthCol != "" {
		c.MonthColumn = monthCol
	}
	if len(numericCols) > 0 {
		c.ValueColumn = pickValueColumn(numericCols, yearCol, monthCol)
	}
	dims := make([]string, 0, len(catCols))
	for _, name := range catCols {
		if name != yearCol && name != monthCol {
			dims = append(dims, name)
		}
	}
	c.TimeSeries.Dimensions = dims
	if len(dims) > 1 {
		c.PeerGroup.GroupColumns = dims[:len(dims)-1]
		c.PeerGroup.ItemColumn = dims[len(dims)-1]
	} else {
		c.PeerGroup.Enabled = false
	}
	return c
}

// findPeriodColumns looks for the conventional year/month pair by name.
func findPeriodColumns(columns []string) (year, month string) {
	for _, name := range columns {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "year", "fiscal_year", "fy":
			if year == "" {
				year = name
			}
		case "month", "period", "fiscal_month":
			if month == "" {
				month = name
			}
		}
	}
	return year, month
}

// pickValueColumn prefers a numeric column that is not the period pair and
// whose name suggests an amount.
func pickValueColumn(numericCols []string, yearCol, monthCol string) string {
	var fallback string
	for _, name := range numericCols {
		if name == yearCol || name == monthCol {
			continue
		}
		if fallback == "" {
			fallback = name
		}
		low := strings.ToLower(name)
		for _, hint := range []string{"amount", "value", "total", "balance", "cost", "expense", "revenue"} {
			if strings.Contains(low, hint) {
				return name
			}
		}
	}
	return fallback
}
