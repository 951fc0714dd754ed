// Package config defines the audit pipeline configuration. The pipeline
// receives one immutable Audit value; nothing reads ambient globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/finloom/finaudit-cli/internal/detect"
)

// InputMode says whether the input table is already long-format or a
// crosstab needing conversion.
type InputMode string

const (
	InputLong     InputMode = "long"
	InputCrosstab InputMode = "crosstab"
)

// ParseInputMode validates a mode string.
func ParseInputMode(s string) (InputMode, error) {
	switch InputMode(strings.ToLower(strings.TrimSpace(s))) {
	case InputLong:
		return InputLong, nil
	case InputCrosstab:
		return InputCrosstab, nil
	}
	return "", fmt.Errorf("unknown input mode %q (use long|crosstab)", s)
}

// Audit is the full pipeline configuration.
type Audit struct {
	InputMode InputMode `mapstructure:"input_mode" yaml:"input_mode"`
	// ValueColumn holds the amounts to audit. For crosstab input it names
	// the synthesized value column of the converted table.
	ValueColumn string `mapstructure:"value_column" yaml:"value_column"`
	// YearColumn/MonthColumn locate the period in long-format input.
	YearColumn  string `mapstructure:"year_column" yaml:"year_column"`
	MonthColumn string `mapstructure:"month_column" yaml:"month_column"`

	Crosstab   CrosstabSection   `mapstructure:"crosstab" yaml:"crosstab"`
	TimeSeries TimeSeriesSection `mapstructure:"time_series" yaml:"time_series"`
	PeerGroup  PeerSection       `mapstructure:"peer_group" yaml:"peer_group"`
	Report     ReportSection     `mapstructure:"report" yaml:"report"`
}

// CrosstabSection configures crosstab input handling.
type CrosstabSection struct {
	// IDColumns are the identifier columns; every other column is a period.
	IDColumns []string `mapstructure:"id_columns" yaml:"id_columns"`
	// HeaderMode is auto|date|sequential (see the crosstab package).
	HeaderMode string `mapstructure:"header_mode" yaml:"header_mode"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	SkipRows   int    `mapstructure:"skip_rows" yaml:"skip_rows"`
}

// TimeSeriesSection configures the rolling-window pass.
type TimeSeriesSection struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Dimensions identify one series per distinct value combination.
	Dimensions []string `mapstructure:"dimensions" yaml:"dimensions"`

	detect.TimeSeriesConfig `mapstructure:",squash" yaml:",inline"`
}

// PeerSection configures the peer-group pass.
type PeerSection struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// GroupColumns define the peer group; ItemColumn identifies the peers
	// compared inside it.
	GroupColumns []string `mapstructure:"group_columns" yaml:"group_columns"`
	ItemColumn   string   `mapstructure:"item_column" yaml:"item_column"`

	detect.PeerConfig `mapstructure:",squash" yaml:",inline"`
}

// ReportSection configures report assembly.
type ReportSection struct {
	// IncludeNewItems also lists new_item findings in the audit logs.
	IncludeNewItems bool `mapstructure:"include_new_items" yaml:"include_new_items"`
}

// Default returns the standard configuration. Detection passes default to
// enabled; column names must come from a config file, env, or flags.
func Default() *Audit {
	return &Audit{
		InputMode:   InputLong,
		ValueColumn: "VALUE",
		YearColumn:  "YEAR",
		MonthColumn: "MONTH",
		Crosstab: CrosstabSection{
			HeaderMode: "auto",
			SheetIndex: 1,
		},
		TimeSeries: TimeSeriesSection{
			Enabled:          true,
			TimeSeriesConfig: *detect.DefaultTimeSeriesConfig(),
		},
		PeerGroup: PeerSection{
			Enabled:    true,
			PeerConfig: *detect.DefaultPeerConfig(),
		},
	}
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (FINAUDIT_*) > config file > defaults. When cfgFile is
// empty, finaudit.yaml in the working directory is used if present.
func Load(cfgFile string) (*Audit, error) {
	v := viper.New()
	v.SetEnvPrefix("FINAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("input_mode", string(def.InputMode))
	v.SetDefault("value_column", def.ValueColumn)
	v.SetDefault("year_column", def.YearColumn)
	v.SetDefault("month_column", def.MonthColumn)
	v.SetDefault("crosstab.header_mode", def.Crosstab.HeaderMode)
	v.SetDefault("crosstab.sheet_index", def.Crosstab.SheetIndex)
	v.SetDefault("crosstab.skip_rows", 0)
	v.SetDefault("time_series.enabled", def.TimeSeries.Enabled)
	v.SetDefault("time_series.window", def.TimeSeries.Window)
	v.SetDefault("time_series.min_history", def.TimeSeries.MinHistory)
	v.SetDefault("time_series.multiplier", def.TimeSeries.Multiplier)
	v.SetDefault("time_series.workers", 0)
	v.SetDefault("peer_group.enabled", def.PeerGroup.Enabled)
	v.SetDefault("peer_group.min_peers", def.PeerGroup.MinPeers)
	v.SetDefault("peer_group.score_threshold", def.PeerGroup.ScoreThreshold)
	v.SetDefault("peer_group.trees", def.PeerGroup.Trees)
	v.SetDefault("peer_group.sample_size", def.PeerGroup.SampleSize)
	v.SetDefault("peer_group.seed", def.PeerGroup.Seed)
	v.SetDefault("report.include_new_items", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("finaudit")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Audit
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the configuration to path as YAML.
func Save(c *Audit, path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate fails fast on structural problems, before any detection work.
// All problems are reported together rather than one per run.
func (c *Audit) Validate() error {
	var errs []string
	if _, err := ParseInputMode(string(c.InputMode)); err != nil {
		errs = append(errs, err.Error())
	}
	if c.ValueColumn == "" {
		errs = append(errs, "value_column is required")
	}
	switch c.InputMode {
	case InputLong:
		if c.YearColumn == "" || c.MonthColumn == "" {
			errs = append(errs, "year_column and month_column are required for long input")
		}
	case InputCrosstab:
		if len(c.Crosstab.IDColumns) == 0 {
			errs = append(errs, "crosstab.id_columns is required for crosstab input")
		}
		if c.Crosstab.HeaderMode != "" && !validHeaderMode(c.Crosstab.HeaderMode) {
			errs = append(errs, fmt.Sprintf("unknown crosstab.header_mode %q (use auto|date|sequential)", c.Crosstab.HeaderMode))
		}
	}
	if !c.TimeSeries.Enabled && !c.PeerGroup.Enabled {
		errs = append(errs, "both detection passes are disabled; nothing to do")
	}
	if c.TimeSeries.Enabled {
		if len(c.TimeSeries.Dimensions) == 0 {
			errs = append(errs, "time_series.dimensions is required when the pass is enabled")
		}
		if c.TimeSeries.Window < 1 {
			errs = append(errs, "time_series.window must be at least 1")
		}
		if c.TimeSeries.MinHistory < 1 {
			errs = append(errs, "time_series.min_history must be at least 1")
		}
		if c.TimeSeries.Multiplier <= 0 {
			errs = append(errs, "time_series.multiplier must be positive")
		}
	}
	if c.PeerGroup.Enabled {
		if len(c.PeerGroup.GroupColumns) == 0 {
			errs = append(errs, "peer_group.group_columns is required when the pass is enabled")
		}
		if c.PeerGroup.ItemColumn == "" {
			errs = append(errs, "peer_group.item_column is required when the pass is enabled")
		}
		if c.PeerGroup.MinPeers < 2 {
			errs = append(errs, "peer_group.min_peers must be at least 2")
		}
	}
	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}

// validHeaderMode mirrors crosstab.ParseHeaderMode; config sits below the
// crosstab package in the dependency order and cannot import it.
func validHeaderMode(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "date", "sequential":
		return true
	}
	return false
}
