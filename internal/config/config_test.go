package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Audit {
	c := Default()
	c.TimeSeries.Dimensions = []string{"DEPT", "ITEM"}
	c.PeerGroup.GroupColumns = []string{"DEPT"}
	c.PeerGroup.ItemColumn = "ITEM"
	return c
}

func TestDefaultValidatesOnceColumnsSet(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestDefaultParameters(t *testing.T) {
	c := Default()
	assert.Equal(t, InputLong, c.InputMode)
	assert.Equal(t, 6, c.TimeSeries.Window)
	assert.Equal(t, 3, c.TimeSeries.MinHistory)
	assert.Equal(t, 1.5, c.TimeSeries.Multiplier)
	assert.Equal(t, 2, c.PeerGroup.MinPeers)
	assert.Equal(t, 0.6, c.PeerGroup.ScoreThreshold)
	assert.True(t, c.TimeSeries.Enabled)
	assert.True(t, c.PeerGroup.Enabled)
	assert.False(t, c.Report.IncludeNewItems)
}

func TestValidateReportsAllProblems(t *testing.T) {
	c := validConfig()
	c.InputMode = "wide"
	c.ValueColumn = ""
	c.TimeSeries.Dimensions = nil

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input mode")
	assert.Contains(t, err.Error(), "value_column")
	assert.Contains(t, err.Error(), "dimensions")
}

func TestValidateCrosstabNeedsIDColumns(t *testing.T) {
	c := validConfig()
	c.InputMode = InputCrosstab

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id_columns")

	c.Crosstab.IDColumns = []string{"DEPT", "ITEM"}
	assert.NoError(t, c.Validate())
}

func TestValidateRejectsBadHeaderMode(t *testing.T) {
	c := validConfig()
	c.InputMode = InputCrosstab
	c.Crosstab.IDColumns = []string{"DEPT"}
	c.Crosstab.HeaderMode = "guess"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header_mode")
}

func TestValidateNothingEnabled(t *testing.T) {
	c := validConfig()
	c.TimeSeries.Enabled = false
	c.PeerGroup.Enabled = false

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to do")
}

func TestValidatePeerGroupColumns(t *testing.T) {
	c := validConfig()
	c.PeerGroup.GroupColumns = nil
	c.PeerGroup.ItemColumn = ""
	c.PeerGroup.MinPeers = 1

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group_columns")
	assert.Contains(t, err.Error(), "item_column")
	assert.Contains(t, err.Error(), "min_peers")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := validConfig()
	c.ValueColumn = "AMOUNT"
	c.TimeSeries.Window = 12
	c.PeerGroup.Seed = 42
	c.Report.IncludeNewItems = true

	path := filepath.Join(t.TempDir(), "finaudit.yaml")
	require.NoError(t, Save(c, path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.ValueColumn, back.ValueColumn)
	assert.Equal(t, 12, back.TimeSeries.Window)
	assert.Equal(t, []string{"DEPT", "ITEM"}, back.TimeSeries.Dimensions)
	assert.Equal(t, int64(42), back.PeerGroup.Seed)
	assert.True(t, back.Report.IncludeNewItems)
}

func TestLoadAppliesDefaultsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("value_column: AMOUNT\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "AMOUNT", c.ValueColumn)
	assert.Equal(t, 6, c.TimeSeries.Window, "unset fields keep defaults")
	assert.Equal(t, InputLong, c.InputMode)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseInputMode(t *testing.T) {
	m, err := ParseInputMode(" LONG ")
	require.NoError(t, err)
	assert.Equal(t, InputLong, m)

	_, err = ParseInputMode("wide")
	assert.Error(t, err)
}
