package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/debugassist/internal/corpus"
	"github.com/fyrsmithlabs/debugassist/internal/playbook"
	"github.com/fyrsmithlabs/debugassist/internal/policy"
	"github.com/fyrsmithlabs/debugassist/internal/retrieval"
	"github.com/fyrsmithlabs/debugassist/internal/rules"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
	"github.com/fyrsmithlabs/debugassist/pkg/guidance"
)

// stubDist returns a fixed distribution regardless of input.
type stubDist struct {
	dist []float64
}

func (s stubDist) Distribution(string) []float64 {
	out := make([]float64, len(s.dist))
	copy(out, s.dist)
	return out
}

// stubIndex records how often retrieval runs.
type stubIndex struct {
	calls   int
	matches []retrieval.Match
}

func (s *stubIndex) Similar(_ context.Context, _ string, _ int) ([]retrieval.Match, error) {
	s.calls++
	return s.matches, nil
}

// dist builds a declaration-order distribution with the given family at p
// and the remainder spread over the rest.
func dist(top family.Family, p float64) []float64 {
	out := make([]float64, family.Count())
	rest := (1 - p) / float64(family.Count()-1)
	for i := range out {
		out[i] = rest
	}
	out[family.Index(top)] = p
	return out
}

func uniformDist() []float64 {
	out := make([]float64, family.Count())
	for i := range out {
		out[i] = 1 / float64(family.Count())
	}
	return out
}

func serviceFixture(t *testing.T, d Distributor, ix SimilarityIndex) *Service {
	t.Helper()
	books, err := playbook.Load("")
	require.NoError(t, err)
	pol, err := policy.New(policy.DefaultThreshold, policy.DefaultAlternatives)
	require.NoError(t, err)
	svc, err := New(rules.NewEngine(rules.DefaultRules()), d, pol, ix, books, 3, nil)
	require.NoError(t, err)
	return svc
}

func TestRuleMatchShortCircuitsClassifier(t *testing.T) {
	// The classifier is confident about the wrong family; a rule match
	// must win regardless.
	ix := &stubIndex{}
	svc := serviceFixture(t, stubDist{dist: dist(family.KeyError, 0.99)}, ix)

	res, err := svc.Classify(context.Background(), "TypeError: 'NoneType' object is not subscriptable")
	require.NoError(t, err)

	assert.True(t, res.Focused)
	require.NotNil(t, res.Prediction)
	assert.Equal(t, guidance.SourceRule, res.Prediction.Source)
	assert.Equal(t, family.TypeError, res.Prediction.Family)
	assert.Equal(t, 1.0, res.Prediction.Confidence)

	require.Len(t, res.Checklists, 1)
	books, err := playbook.Load("")
	require.NoError(t, err)
	assert.Equal(t, books.Checklist(family.TypeError), res.Checklists[0].Steps)

	// Rule certainty makes retrieval unnecessary.
	assert.Zero(t, ix.calls)
	assert.Empty(t, res.SimilarCases)
}

func TestTrustedModelAnswerIncludesSimilarCases(t *testing.T) {
	ix := &stubIndex{matches: []retrieval.Match{
		{Case: corpus.Case{ID: "case_1", Text: "KeyError: 'user_id'", Family: family.KeyError, Fix: "use dict.get"}, Score: 0.91},
	}}
	svc := serviceFixture(t, stubDist{dist: dist(family.KeyError, 0.8)}, ix)

	res, err := svc.Classify(context.Background(), "my dict lookup blew up on a missing entry")
	require.NoError(t, err)

	assert.True(t, res.Focused)
	require.NotNil(t, res.Prediction)
	assert.Equal(t, guidance.SourceModel, res.Prediction.Source)
	assert.Equal(t, family.KeyError, res.Prediction.Family)
	assert.InDelta(t, 0.8, res.Prediction.Confidence, 1e-9)

	assert.Equal(t, 1, ix.calls)
	require.Len(t, res.SimilarCases, 1)
	assert.Equal(t, "case_1", res.SimilarCases[0].ID)
	assert.Equal(t, "use dict.get", res.SimilarCases[0].Fix)
}

func TestUntrustedSkipsRetrieval(t *testing.T) {
	ix := &stubIndex{}
	svc := serviceFixture(t, stubDist{dist: dist(family.ValueError, 0.42)}, ix)

	res, err := svc.Classify(context.Background(), "my list thing broke when I looked something up")
	require.NoError(t, err)

	assert.False(t, res.Focused)
	assert.Nil(t, res.Prediction)
	assert.Zero(t, ix.calls, "retrieval must not run on the hedged branch")
	assert.Empty(t, res.SimilarCases)
	assert.NotEmpty(t, res.Prompt)

	require.Len(t, res.Checklists, 3)
	assert.Equal(t, family.ValueError, res.Checklists[0].Family)
	assert.InDelta(t, 0.42, res.Checklists[0].Probability, 1e-9)
	for i := 1; i < len(res.Checklists); i++ {
		assert.GreaterOrEqual(t, res.Checklists[i-1].Probability, res.Checklists[i].Probability)
		assert.NotEqual(t, res.Checklists[i-1].Family, res.Checklists[i].Family)
	}
	for _, cl := range res.Checklists {
		assert.NotEmpty(t, cl.Steps)
	}
}

func TestEmptyInputDegradesToHedged(t *testing.T) {
	ix := &stubIndex{}
	svc := serviceFixture(t, stubDist{dist: uniformDist()}, ix)

	res, err := svc.Classify(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, res.Focused)
	assert.Len(t, res.Checklists, 3)
	assert.Zero(t, ix.calls)
	assert.NotEmpty(t, res.Prompt)
}

func TestClassifyIdempotent(t *testing.T) {
	svc := serviceFixture(t, stubDist{dist: dist(family.KeyError, 0.8)}, &stubIndex{})

	const input = "something about a missing dictionary entry"
	first, err := svc.Classify(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Classify(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestKeywordTipsAppended(t *testing.T) {
	svc := serviceFixture(t, stubDist{dist: uniformDist()}, &stubIndex{})

	res, err := svc.Classify(context.Background(), "RecursionError: maximum recursion depth exceeded")
	require.NoError(t, err)

	books, err := playbook.Load("")
	require.NoError(t, err)
	tips := books.Tips("recursion")
	require.NotEmpty(t, tips)

	for _, cl := range res.Checklists {
		assert.Subset(t, cl.Steps, tips)
	}
}

func TestNilIndexDisablesRetrieval(t *testing.T) {
	svc := serviceFixture(t, stubDist{dist: dist(family.KeyError, 0.9)}, nil)

	res, err := svc.Classify(context.Background(), "my dict lookup failed somewhere deep")
	require.NoError(t, err)
	assert.True(t, res.Focused)
	assert.Empty(t, res.SimilarCases)
}

// recordingDist captures the text the classifier is asked to score.
type recordingDist struct {
	stubDist
	texts []string
}

func (r *recordingDist) Distribution(normText string) []float64 {
	r.texts = append(r.texts, normText)
	return r.stubDist.Distribution(normText)
}

func TestRulesIgnoreCodeSnippet(t *testing.T) {
	d := &recordingDist{stubDist: stubDist{dist: uniformDist()}}
	svc := serviceFixture(t, d, &stubIndex{})

	// The rule keyword lives in the pasted code, not the error text. It
	// must reach the classifier but never fire a rule.
	res, err := svc.ClassifyWithCode(context.Background(),
		"my script crashes on startup",
		"value = payload['user_id']  # raises KeyError: 'user_id'")
	require.NoError(t, err)

	assert.False(t, res.Focused)
	assert.Nil(t, res.Prediction)

	require.Len(t, d.texts, 1)
	assert.Contains(t, d.texts[0], "keyerror")
}

func TestClassifyWithCodeFoldsSnippetForModel(t *testing.T) {
	d := &recordingDist{stubDist: stubDist{dist: uniformDist()}}
	svc := serviceFixture(t, d, &stubIndex{})

	_, err := svc.ClassifyWithCode(context.Background(),
		"the computation blows up",
		"result = total / count")
	require.NoError(t, err)

	require.Len(t, d.texts, 1)
	assert.Contains(t, d.texts[0], "<code>")
	assert.Contains(t, d.texts[0], "result = total / count")
}
