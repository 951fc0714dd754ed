// Package detect implements the hybrid anomaly-detection engine: a rolling
// IQR time-series detector and an isolation-forest peer-group detector over
// monthly financial observations.
package detect

import (
	"sort"
	"strings"
)

// Kind classifies one judged observation. The set is closed; report builders
// match it exhaustively.
type Kind string

const (
	KindNormal          Kind = "normal"
	KindHighSpike       Kind = "high_spike"
	KindLowDrop         Kind = "low_drop"
	KindNegativeValue   Kind = "negative_value"
	KindNewItem         Kind = "new_item"
	KindPeerHighOutlier Kind = "peer_high_outlier"
	KindPeerLowOutlier  Kind = "peer_low_outlier"
)

// Method names the detection pass that produced a finding.
type Method string

const (
	MethodTimeSeries Method = "time_series"
	MethodPeerGroup  Method = "peer_group"
)

// Observation is one (dimension keys, period, value) tuple. Keys holds the
// dimension values in configured column order; for peer-group input the last
// element is the item identifier.
type Observation struct {
	Keys   []string
	Period Period
	Value  float64
}

// Point is one dated value inside a Series.
type Point struct {
	Period Period
	Value  float64
}

// Series is the chronologically sorted history of one dimension-key
// combination. Duplicate periods are summed during construction, so a series
// holds at most one point per month.
type Series struct {
	Keys   []string
	Points []Point
}

// Finding is one judged observation. Findings are immutable once emitted.
type Finding struct {
	Keys   []string
	Period Period
	Value  float64
	Kind   Kind
	Method Method
	// Baseline is the value the observation was judged against: the violated
	// IQR bound for spikes/drops, the window mean for other time-series kinds,
	// the peer-group median for peer kinds.
	Baseline float64
	// WindowMean is the trailing-window mean (time-series findings only).
	WindowMean float64
	// ComparedWith is the human-readable audit justification.
	ComparedWith string
}

// keySep never occurs in real dimension values.
const keySep = "\x1f"

func joinKeys(keys []string) string { return strings.Join(keys, keySep) }

// BuildSeries groups observations by their full key tuple, sums duplicate
// periods, and sorts each series chronologically. The returned slice is
// ordered by key tuple so repeated runs see identical series order.
func BuildSeries(obs []Observation) []Series {
	byKey := make(map[string]*Series)
	var order []string
	for _, o := range obs {
		k := joinKeys(o.Keys)
		s, ok := byKey[k]
		if !ok {
			keys := make([]string, len(o.Keys))
			copy(keys, o.Keys)
			s = &Series{Keys: keys}
			byKey[k] = s
			order = append(order, k)
		}
		s.Points = append(s.Points, Point{Period: o.Period, Value: o.Value})
	}
	sort.Strings(order)

	out := make([]Series, 0, len(byKey))
	for _, k := range order {
		s := byKey[k]
		sort.SliceStable(s.Points, func(i, j int) bool {
			return s.Points[i].Period.Before(s.Points[j].Period)
		})
		// Sum duplicate months in place.
		merged := s.Points[:0]
		for _, p := range s.Points {
			if n := len(merged); n > 0 && merged[n-1].Period == p.Period {
				merged[n-1].Value += p.Value
				continue
			}
			merged = append(merged, p)
		}
		s.Points = merged
		out = append(out, *s)
	}
	return out
}

// PeerItem is one peer's (summed) value within a group and period.
type PeerItem struct {
	Item  string
	Value float64
}

// PeerGroup holds all peers sharing the same group keys at one period.
// Built fresh per period; never persisted across periods.
type PeerGroup struct {
	Keys   []string
	Period Period
	Items  []PeerItem
}

// BuildPeerGroups groups observations by (group keys, period), treating the
// last element of Observation.Keys as the item identifier. Values of the same
// item within a period are summed. Groups and items come back sorted for
// run-to-run determinism.
func BuildPeerGroups(obs []Observation) []PeerGroup {
	byGroup := make(map[string]*PeerGroup)
	sums := make(map[string]map[string]float64) // group id -> item -> value
	var order []string

	for _, o := range obs {
		if len(o.Keys) == 0 {
			continue
		}
		item := o.Keys[len(o.Keys)-1]
		groupKeys := o.Keys[:len(o.Keys)-1]
		gid := joinKeys(groupKeys) + keySep + o.Period.String()

		g, ok := byGroup[gid]
		if !ok {
			keys := make([]string, len(groupKeys))
			copy(keys, groupKeys)
			g = &PeerGroup{Keys: keys, Period: o.Period}
			byGroup[gid] = g
			sums[gid] = make(map[string]float64)
			order = append(order, gid)
		}
		sums[gid][item] += o.Value
	}
	sort.Strings(order)

	out := make([]PeerGroup, 0, len(byGroup))
	for _, gid := range order {
		g := byGroup[gid]
		items := make([]PeerItem, 0, len(sums[gid]))
		for item, v := range sums[gid] {
			items = append(items, PeerItem{Item: item, Value: v})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Item < items[j].Item })
		g.Items = items
		out = append(out, *g)
	}
	return out
}
