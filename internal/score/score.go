// Package score maps continuous 0-10 quality scores onto the discrete
// severity buckets and gauge tiers used by presentation. Pure functions
// only; thresholds are inclusive on the lower bound of each tier.
package score

import "math"

// Bucket names, worst to best.
const (
	BucketNeedsWork = "needs_work"
	BucketOkay      = "okay"
	BucketGood      = "good"
	BucketExcellent = "excellent"
)

// Bucket classifies an overall score. NaN and anything below 4 land in
// needs_work.
func Bucket(score float64) string {
	switch {
	case score >= 8:
		return BucketExcellent
	case score >= 6:
		return BucketGood
	case score >= 4:
		return BucketOkay
	default:
		return BucketNeedsWork
	}
}

// GaugeTier is one step of the five-tier gauge colour table.
type GaugeTier struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var gaugeTiers = []struct {
	min  float64
	tier GaugeTier
}{
	{8, GaugeTier{Label: "excellent", Color: "#2ecc71"}},
	{6, GaugeTier{Label: "good", Color: "#a8d94f"}},
	{4, GaugeTier{Label: "okay", Color: "#f1c40f"}},
	{2, GaugeTier{Label: "poor", Color: "#e67e22"}},
	{math.Inf(-1), GaugeTier{Label: "critical", Color: "#e74c3c"}},
}

// Gauge returns the gauge tier for a score. The table is monotonic and
// boundary-inclusive, matching Bucket. NaN maps to the bottom tier.
func Gauge(score float64) GaugeTier {
	if math.IsNaN(score) {
		return gaugeTiers[len(gaugeTiers)-1].tier
	}
	for _, g := range gaugeTiers {
		if score >= g.min {
			return g.tier
		}
	}
	return gaugeTiers[len(gaugeTiers)-1].tier
}
