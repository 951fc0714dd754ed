package detect

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/rs/zerolog/log"
)

// PeerConfig holds peer-group detector parameters.
type PeerConfig struct {
	// MinPeers is the smallest group worth comparing; smaller groups emit no
	// findings at all.
	MinPeers int `mapstructure:"min_peers" yaml:"min_peers"`
	// ScoreThreshold flags peers whose isolation score exceeds it.
	ScoreThreshold float64 `mapstructure:"score_threshold" yaml:"score_threshold"`
	// Trees and SampleSize size the isolation forest.
	Trees      int `mapstructure:"trees" yaml:"trees"`
	SampleSize int `mapstructure:"sample_size" yaml:"sample_size"`
	// Seed fixes the forest randomness; identical seeds reproduce identical
	// flagged sets on the same input.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// DefaultPeerConfig returns the standard parameters.
func DefaultPeerConfig() *PeerConfig {
	return &PeerConfig{MinPeers: 2, ScoreThreshold: 0.6, Trees: 100, SampleSize: 256, Seed: 1}
}

// PeerDetector compares each item's value against its peers in the same
// group and period using an isolation-forest scorer.
type PeerDetector struct {
	cfg PeerConfig
	// newScorer builds the scorer for one group; swappable for tests.
	newScorer func(seed int64) Scorer
}

// NewPeerDetector creates a detector; nil config selects defaults.
func NewPeerDetector(cfg *PeerConfig) *PeerDetector {
	c := DefaultPeerConfig()
	if cfg != nil {
		c = cfg
	}
	d := &PeerDetector{cfg: *c}
	if d.cfg.MinPeers < 2 {
		d.cfg.MinPeers = 2
	}
	if d.cfg.ScoreThreshold <= 0 {
		d.cfg.ScoreThreshold = 0.6
	}
	d.newScorer = func(seed int64) Scorer {
		return NewIsolationForest(d.cfg.Trees, d.cfg.SampleSize, seed)
	}
	return d
}

// SetScorerFactory overrides the scorer construction (used in tests to
// isolate the flagging logic from the statistical model).
func (d *PeerDetector) SetScorerFactory(f func(seed int64) Scorer) { d.newScorer = f }

// Scan scores every group independently and returns findings for flagged
// peers only. Direction is judged against the group median: flagged values
// above it are peer_high_outlier, below it peer_low_outlier; a flagged value
// exactly at the median has no direction and is not reported.
//
// Each group seeds its own forest from the configured seed mixed with the
// group identity, so results do not depend on group iteration order.
func (d *PeerDetector) Scan(groups []PeerGroup) []Finding {
	var out []Finding
	skipped := 0
	for _, g := range groups {
		fs, err := d.scanGroup(g)
		if err != nil {
			// Degenerate groups carry no information; not an error condition.
			if errors.Is(err, ErrDegenerate) {
				skipped++
				continue
			}
			log.Warn().Err(err).Str("group", joinKeys(g.Keys)).Str("period", g.Period.String()).
				Msg("peer group scoring failed; group skipped")
			continue
		}
		out = append(out, fs...)
	}
	log.Debug().Int("groups", len(groups)).Int("degenerate", skipped).Int("findings", len(out)).
		Msg("peer-group scan complete")
	return out
}

func (d *PeerDetector) scanGroup(g PeerGroup) ([]Finding, error) {
	if len(g.Items) < d.cfg.MinPeers {
		return nil, nil
	}
	values := make([]float64, len(g.Items))
	for i, it := range g.Items {
		values[i] = it.Value
	}
	scores, err := d.newScorer(d.groupSeed(g)).Score(values)
	if err != nil {
		return nil, err
	}

	med := median(values)
	var out []Finding
	for i, it := range g.Items {
		if scores[i] <= d.cfg.ScoreThreshold || it.Value == med {
			continue
		}
		kind := KindPeerLowOutlier
		if it.Value > med {
			kind = KindPeerHighOutlier
		}
		keys := make([]string, 0, len(g.Keys)+1)
		keys = append(keys, g.Keys...)
		keys = append(keys, it.Item)
		out = append(out, Finding{
			Keys:     keys,
			Period:   g.Period,
			Value:    it.Value,
			Kind:     kind,
			Method:   MethodPeerGroup,
			Baseline: med,
			ComparedWith: fmt.Sprintf("peer median %.2f (peers=%d, score=%.2f)",
				med, len(g.Items), scores[i]),
		})
	}
	return out, nil
}

// groupSeed mixes the configured seed with the group identity so each group
// gets an independent but reproducible random stream.
func (d *PeerDetector) groupSeed(g PeerGroup) int64 {
	h := fnv.New64a()
	h.Write([]byte(joinKeys(g.Keys)))
	h.Write([]byte(g.Period.String()))
	return d.cfg.Seed ^ int64(h.Sum64())
}
