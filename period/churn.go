package period

import "github.com/montanaflynn/stats"

// ChurnStats describes per-pair change rates across a window: how much the
// inventory moved day to day, independent of the net result.
type ChurnStats struct {
	Pairs       int     `json:"pairs"`
	AvgAdded    float64 `json:"avg_added"`
	MaxAdded    float64 `json:"max_added"`
	AvgRemoved  float64 `json:"avg_removed"`
	MaxRemoved  float64 `json:"max_removed"`
	AvgModified float64 `json:"avg_modified"`
	MaxModified float64 `json:"max_modified"`
}

// Churn computes mean and peak per-pair change counts. An empty input
// yields zero stats.
func Churn(pairs []Pair) ChurnStats {
	if len(pairs) == 0 {
		return ChurnStats{}
	}

	added := make([]float64, len(pairs))
	removed := make([]float64, len(pairs))
	modified := make([]float64, len(pairs))
	for i, p := range pairs {
		added[i] = float64(p.Summary.HostsAdded)
		removed[i] = float64(p.Summary.HostsRemoved)
		modified[i] = float64(p.Summary.HostsModified)
	}

	cs := ChurnStats{Pairs: len(pairs)}
	cs.AvgAdded, _ = stats.Mean(added)
	cs.MaxAdded, _ = stats.Max(added)
	cs.AvgRemoved, _ = stats.Mean(removed)
	cs.MaxRemoved, _ = stats.Max(removed)
	cs.AvgModified, _ = stats.Mean(modified)
	cs.MaxModified, _ = stats.Max(modified)
	return cs
}
