package crosstab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finloom/finaudit-cli/internal/dataset"
)

func sampleCrosstab() *dataset.Table {
	t := dataset.New([]string{"DEPT", "ITEM", "2025-01", "2025-02", "2025-03"})
	t.Append([]string{"IT", "software", "1,000.00", "(500)", ""})
	t.Append([]string{"HR", "payroll", "9000", "9100", "N/A"})
	return t
}

func TestConvertProducesLongRows(t *testing.T) {
	long, err := Convert(sampleCrosstab(), []string{"DEPT", "ITEM"}, "AMOUNT", HeaderAuto)
	require.NoError(t, err)

	assert.Equal(t, []string{"DEPT", "ITEM", "YEAR", "MONTH", "DATE", "AMOUNT"}, long.Columns)
	// Two blank/marker cells are dropped, not zero-filled.
	require.Equal(t, 4, long.Len())

	assert.Equal(t, []string{"IT", "software", "2025", "1", "2025-01-01", "1000"}, long.Rows[0])
	assert.Equal(t, []string{"IT", "software", "2025", "2", "2025-02-01", "-500"}, long.Rows[1])
	assert.Equal(t, []string{"HR", "payroll", "2025", "1", "2025-01-01", "9000"}, long.Rows[2])
	assert.Equal(t, []string{"HR", "payroll", "2025", "2", "2025-02-01", "9100"}, long.Rows[3])
}

func TestConvertSequentialModeRejected(t *testing.T) {
	_, err := Convert(sampleCrosstab(), []string{"DEPT", "ITEM"}, "AMOUNT", HeaderSequential)
	assert.ErrorIs(t, err, ErrSequentialHeaders)
}

func TestConvertAutoRejectsOrdinalHeaders(t *testing.T) {
	tab := dataset.New([]string{"DEPT", "1", "2", "3"})
	tab.Append([]string{"IT", "100", "110", "120"})

	_, err := Convert(tab, []string{"DEPT"}, "AMOUNT", HeaderAuto)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequentialHeaders)
}

func TestConvertAutoRejectsMixedHeaders(t *testing.T) {
	// One stray non-date column must fail the whole table rather than be
	// silently skipped.
	tab := dataset.New([]string{"DEPT", "2025-01", "Total"})
	tab.Append([]string{"IT", "100", "100"})

	_, err := Convert(tab, []string{"DEPT"}, "AMOUNT", HeaderAuto)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSequentialHeaders)
	assert.Contains(t, err.Error(), "Total")
}

func TestConvertDateModeRejectsUnparsableHeader(t *testing.T) {
	tab := dataset.New([]string{"DEPT", "2025-01", "Notes"})
	tab.Append([]string{"IT", "100", "ok"})

	_, err := Convert(tab, []string{"DEPT"}, "AMOUNT", HeaderDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Notes")
}

func TestConvertRequiresIDColumns(t *testing.T) {
	_, err := Convert(sampleCrosstab(), nil, "AMOUNT", HeaderAuto)
	assert.Error(t, err)

	_, err = Convert(sampleCrosstab(), []string{"MISSING"}, "AMOUNT", HeaderAuto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
}

func TestConvertHeaderSpellings(t *testing.T) {
	tab := dataset.New([]string{"DEPT", "Jan 2025", "2025/02", "03/2025"})
	tab.Append([]string{"IT", "10", "20", "30"})

	long, err := Convert(tab, []string{"DEPT"}, "VALUE", HeaderAuto)
	require.NoError(t, err)
	require.Equal(t, 3, long.Len())
	assert.Equal(t, "1", long.Rows[0][long.Index("MONTH")])
	assert.Equal(t, "2", long.Rows[1][long.Index("MONTH")])
	assert.Equal(t, "3", long.Rows[2][long.Index("MONTH")])
}

func TestParseHeaderMode(t *testing.T) {
	for _, s := range []string{"auto", "Date", " SEQUENTIAL "} {
		_, err := ParseHeaderMode(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseHeaderMode("guess")
	assert.Error(t, err)
}
