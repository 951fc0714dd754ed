package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriodAcceptedSpellings(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"2025-01", NewPeriod(2025, 1)},
		{"2025-1", NewPeriod(2025, 1)},
		{"2025/03", NewPeriod(2025, 3)},
		{"03/2025", NewPeriod(2025, 3)},
		{"2025-03-15", NewPeriod(2025, 3)},
		{"15/03/2025", NewPeriod(2025, 3)},
		{"Jan 2025", NewPeriod(2025, 1)},
		{"January 2025", NewPeriod(2025, 1)},
		{"2025-Jan", NewPeriod(2025, 1)},
		{"Jan-25", NewPeriod(2025, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePeriod(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriodRejectsSequencesAndJunk(t *testing.T) {
	for _, in := range []string{"1", "2", "12", "Total", "Q1", "", "item_name"} {
		_, ok := ParsePeriod(in)
		assert.False(t, ok, "%q must not parse as a period", in)
	}
}

func TestPeriodOrderingAndLabel(t *testing.T) {
	jan := NewPeriod(2025, 1)
	dec24 := NewPeriod(2024, 12)

	assert.True(t, dec24.Before(jan))
	assert.False(t, jan.Before(dec24))
	assert.False(t, jan.Before(jan))
	assert.Equal(t, "2025-01", jan.String())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), jan.FirstDay())
}

func TestPeriodValid(t *testing.T) {
	assert.True(t, NewPeriod(2025, 6).Valid())
	assert.False(t, NewPeriod(2025, 13).Valid())
	assert.False(t, NewPeriod(2025, 0).Valid())
	assert.False(t, NewPeriod(0, 6).Valid())
}
