package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Summary is the per-run record written next to the report files. It exists
// so an auditor can tie every output file back to one identified run.
type Summary struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	Input     string `yaml:"input"`
	InputMode string `yaml:"input_mode"`
	RowsRead  int    `yaml:"rows_read"`

	Series     int `yaml:"series,omitempty"`
	PeerGroups int `yaml:"peer_groups,omitempty"`

	// Findings counts non-normal findings per kind across both passes.
	Findings map[string]int `yaml:"findings"`

	Outputs []string `yaml:"outputs"`
}

// Write saves the summary as YAML.
func (s *Summary) Write(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}
	return nil
}
