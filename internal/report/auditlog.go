package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/detect"
)

// Column names of an audit log table after the dimension columns.
const (
	ColPeriod       = "PERIOD"
	ColValue        = "VALUE"
	ColKind         = "KIND"
	ColBaseline     = "BASELINE"
	ColComparedWith = "COMPARED_WITH"
	ColMethod       = "METHOD"
)

// AuditLog flattens findings into a log table: dimension columns followed by
// PERIOD, VALUE, KIND, BASELINE, COMPARED_WITH, METHOD. Normal observations
// are never logged; new_item entries are logged only when includeNewItems is
// set. Rows are sorted by key tuple then period.
func AuditLog(keyColumns []string, findings []detect.Finding, includeNewItems bool) *dataset.Table {
	kept := make([]detect.Finding, 0, len(findings))
	for _, f := range findings {
		switch f.Kind {
		case detect.KindNormal:
			continue
		case detect.KindNewItem:
			if !includeNewItems {
				continue
			}
		}
		kept = append(kept, f)
	}
	sort.Slice(kept, func(i, j int) bool {
		ki := strings.Join(kept[i].Keys, gridKeySep)
		kj := strings.Join(kept[j].Keys, gridKeySep)
		if ki != kj {
			return ki < kj
		}
		return kept[i].Period.Before(kept[j].Period)
	})

	cols := make([]string, 0, len(keyColumns)+6)
	cols = append(cols, keyColumns...)
	cols = append(cols, ColPeriod, ColValue, ColKind, ColBaseline, ColComparedWith, ColMethod)
	t := dataset.New(cols)
	for _, f := range kept {
		row := make([]string, 0, len(cols))
		row = append(row, f.Keys...)
		baseline := ""
		if f.Kind != detect.KindNewItem {
			baseline = fmt.Sprintf("%.2f", f.Baseline)
		}
		row = append(row, f.Period.String(), formatValue(f.Value), string(f.Kind),
			baseline, f.ComparedWith, string(f.Method))
		t.Append(row)
	}
	return t
}
