package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// dist builds a declaration-order distribution with the given family
// probabilities; unmentioned families get 0.
func dist(probs map[family.Family]float64) []float64 {
	out := make([]float64, family.Count())
	for f, p := range probs {
		out[family.Index(f)] = p
	}
	return out
}

func TestNewRejectsBadThreshold(t *testing.T) {
	for _, bad := range []float64{-0.01, 1.01, 2} {
		_, err := New(bad, 3)
		require.ErrorIs(t, err, ErrInvalidThreshold, "threshold %v", bad)
	}

	for _, ok := range []float64{0, 0.6, 1} {
		_, err := New(ok, 3)
		require.NoError(t, err)
	}
}

func TestDecideTrustedAtThresholdBoundary(t *testing.T) {
	p, err := New(0.6, 3)
	require.NoError(t, err)

	// Exactly at the threshold is trusted (>=, not >).
	d := p.Decide(dist(map[family.Family]float64{
		family.TypeError: 0.6,
		family.KeyError:  0.4,
	}))
	assert.True(t, d.Trusted)
	assert.Equal(t, family.TypeError, d.Top)
	assert.InDelta(t, 0.6, d.Confidence, 1e-12)

	// One epsilon below is untrusted.
	d = p.Decide(dist(map[family.Family]float64{
		family.TypeError: 0.6 - 1e-9,
		family.KeyError:  0.4,
	}))
	assert.False(t, d.Trusted)
}

func TestDecideAlternativesOrdering(t *testing.T) {
	p, err := New(0.6, 3)
	require.NoError(t, err)

	d := p.Decide(dist(map[family.Family]float64{
		family.KeyError:   0.42,
		family.IndexError: 0.30,
		family.TypeError:  0.18,
		family.ValueError: 0.10,
	}))

	require.False(t, d.Trusted)
	require.Len(t, d.Alternatives, 3)
	assert.Equal(t, family.KeyError, d.Alternatives[0].Family)
	assert.Equal(t, family.IndexError, d.Alternatives[1].Family)
	assert.Equal(t, family.TypeError, d.Alternatives[2].Family)

	for i := 1; i < len(d.Alternatives); i++ {
		assert.GreaterOrEqual(t, d.Alternatives[i-1].Probability, d.Alternatives[i].Probability)
	}
}

func TestDecideTieBreakByDeclarationOrder(t *testing.T) {
	p, err := New(0.9, 3)
	require.NoError(t, err)

	// Uniform distribution: ties everywhere. Declaration order must hold.
	uniform := make([]float64, family.Count())
	for i := range uniform {
		uniform[i] = 1.0 / float64(family.Count())
	}

	d := p.Decide(uniform)
	require.False(t, d.Trusted)
	require.Len(t, d.Alternatives, 3)
	assert.Equal(t, family.ImportError, d.Alternatives[0].Family)
	assert.Equal(t, family.SyntaxError, d.Alternatives[1].Family)
	assert.Equal(t, family.TypeError, d.Alternatives[2].Family)
	assert.Equal(t, family.ImportError, d.Top)
}

func TestDecideDistinctAlternatives(t *testing.T) {
	p, err := New(0.6, 3)
	require.NoError(t, err)

	d := p.Decide(dist(map[family.Family]float64{family.KeyError: 1.0}))
	seen := map[family.Family]bool{}
	for _, alt := range d.Alternatives {
		assert.False(t, seen[alt.Family], "duplicate alternative %s", alt.Family)
		seen[alt.Family] = true
	}
}

func TestDecideTopNClamped(t *testing.T) {
	p, err := New(0.6, 50)
	require.NoError(t, err)

	d := p.Decide(make([]float64, family.Count()))
	assert.Len(t, d.Alternatives, family.Count())
}
