// Package policy decides how much a classifier distribution is trusted and
// which shape the final answer takes.
//
// The decision is the fork point of the pipeline: a trusted top prediction
// proceeds to similarity retrieval; an untrusted one skips retrieval and
// surfaces the top alternatives instead, asking the caller for the exact
// traceback.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// DefaultThreshold is the tunable "high confidence" cut. A top probability
// at or above it is trusted (>= comparison, so a value exactly at the
// threshold is trusted).
const DefaultThreshold = 0.6

// DefaultAlternatives is how many candidates the hedged branch surfaces.
const DefaultAlternatives = 3

// ErrInvalidThreshold indicates a threshold outside [0,1]. This is a
// configuration error, surfaced at construction, never at query time.
var ErrInvalidThreshold = errors.New("confidence threshold must be within [0,1]")

// Alternative is one ranked candidate family.
type Alternative struct {
	Family      family.Family
	Probability float64
}

// Decision records the policy outcome for one distribution.
type Decision struct {
	// Trusted is true when the top probability meets the threshold.
	Trusted bool

	// Top is the highest-probability family; Confidence its probability.
	Top        family.Family
	Confidence float64

	// Alternatives lists the top candidates in descending probability,
	// ties broken by family declaration order. Populated on every
	// decision; the composer only surfaces them on the hedged branch.
	Alternatives []Alternative
}

// Policy holds the tunables.
type Policy struct {
	threshold    float64
	alternatives int
}

// New validates the threshold and returns a policy surfacing topN
// alternatives. topN values below 1 fall back to DefaultAlternatives.
func New(threshold float64, topN int) (Policy, error) {
	if threshold < 0 || threshold > 1 {
		return Policy{}, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	if topN < 1 {
		topN = DefaultAlternatives
	}
	return Policy{threshold: threshold, alternatives: topN}, nil
}

// Threshold returns the configured trust threshold.
func (p Policy) Threshold() float64 {
	return p.threshold
}

// Decide ranks the distribution and applies the trust threshold. dist is
// indexed by family declaration order, as produced by the model adapter.
func (p Policy) Decide(dist []float64) Decision {
	ranked := make([]Alternative, 0, len(dist))
	for i, f := range family.All() {
		if i >= len(dist) {
			break
		}
		ranked = append(ranked, Alternative{Family: f, Probability: dist[i]})
	}

	// Descending probability; equal probabilities keep declaration order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	n := p.alternatives
	if n > len(ranked) {
		n = len(ranked)
	}

	d := Decision{Alternatives: ranked[:n]}
	if len(ranked) > 0 {
		d.Top = ranked[0].Family
		d.Confidence = ranked[0].Probability
		d.Trusted = d.Confidence >= p.threshold
	}
	return d
}
