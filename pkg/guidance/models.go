// Package guidance defines the structured result returned for every
// classified error description.
//
// A Result is constructed once per call and never mutated after return; it
// carries either a focused answer (one family, one checklist, similar solved
// cases) or a hedged one (candidate families with their checklists and a
// prompt for the exact traceback).
package guidance

import (
	"github.com/fyrsmithlabs/debugassist/pkg/family"
)

// Source identifies which stage produced a prediction.
type Source string

const (
	// SourceRule marks a deterministic rule-table match (certainty 1.0).
	SourceRule Source = "rule"

	// SourceModel marks a statistical classifier prediction.
	SourceModel Source = "model"
)

// Prediction is a single classified family with its confidence.
type Prediction struct {
	Family     family.Family `json:"family"`
	Confidence float64       `json:"confidence"`
	Source     Source        `json:"source"`
}

// Checklist is the ordered fix steps for one candidate family. Probability
// is only meaningful on the hedged branch; focused answers carry the
// prediction's confidence instead.
type Checklist struct {
	Family      family.Family `json:"family"`
	Probability float64       `json:"probability,omitempty"`
	Steps       []string      `json:"steps"`
}

// SimilarCase is one historical solved case ranked by similarity.
type SimilarCase struct {
	ID     string        `json:"id"`
	Family family.Family `json:"family"`
	Text   string        `json:"text"`
	Fix    string        `json:"fix"`
	Score  float64       `json:"score"`
}

// Result is the final output of one classify call.
type Result struct {
	// Focused is true when the answer is trusted: a rule fired or the
	// classifier's top probability met the policy threshold.
	Focused bool `json:"focused"`

	// Prediction is set on focused results only.
	Prediction *Prediction `json:"prediction,omitempty"`

	// Checklists holds one entry on the focused branch and the top
	// candidates, in ranked order, on the hedged branch.
	Checklists []Checklist `json:"checklists"`

	// SimilarCases is populated only on the trusted model branch.
	SimilarCases []SimilarCase `json:"similar_cases,omitempty"`

	// Prompt asks the caller for more detail on the hedged branch.
	Prompt string `json:"prompt,omitempty"`
}
