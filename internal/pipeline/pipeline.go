// Package pipeline wires the classification stages into one service: the
// rule table gets first refusal on the normalized error text, the
// statistical classifier covers the rest on the combined error+code input,
// and the confidence policy decides whether the answer is focused or hedged.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debugassist/internal/normalize"
	"github.com/fyrsmithlabs/debugassist/internal/playbook"
	"github.com/fyrsmithlabs/debugassist/internal/policy"
	"github.com/fyrsmithlabs/debugassist/internal/retrieval"
	"github.com/fyrsmithlabs/debugassist/internal/rules"
	"github.com/fyrsmithlabs/debugassist/pkg/family"
	"github.com/fyrsmithlabs/debugassist/pkg/guidance"
)

// Distributor produces a probability per declared family for normalized
// text, indexed by family declaration order.
type Distributor interface {
	Distribution(normText string) []float64
}

// SimilarityIndex ranks historical solved cases against normalized text.
type SimilarityIndex interface {
	Similar(ctx context.Context, normText string, k int) ([]retrieval.Match, error)
}

// verdict is the sealed outcome of the classification stages. Exactly one
// implementation reaches the composer per query.
type verdict interface {
	isVerdict()
}

type ruleMatched struct {
	match rules.Match
}

type modelTrusted struct {
	decision policy.Decision
}

type modelHedged struct {
	decision policy.Decision
}

func (ruleMatched) isVerdict()  {}
func (modelTrusted) isVerdict() {}
func (modelHedged) isVerdict()  {}

// Service runs the full classify pipeline.
type Service struct {
	rules     *rules.Engine
	model     Distributor
	policy    policy.Policy
	index     SimilarityIndex
	playbooks *playbook.Store
	logger    *zap.Logger
	topK      int
}

// New assembles a service from its stages. The index may be nil when no
// corpus is available; trusted answers then simply carry no similar cases.
func New(engine *rules.Engine, dist Distributor, pol policy.Policy, index SimilarityIndex, books *playbook.Store, topK int, logger *zap.Logger) (*Service, error) {
	if engine == nil || dist == nil || books == nil {
		return nil, fmt.Errorf("rule engine, distributor and playbooks are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}
	return &Service{
		rules:     engine,
		model:     dist,
		policy:    pol,
		index:     index,
		playbooks: books,
		logger:    logger,
		topK:      topK,
	}, nil
}

// Classify turns a free-text error description into guidance.
func (s *Service) Classify(ctx context.Context, errText string) (*guidance.Result, error) {
	return s.ClassifyWithCode(ctx, errText, "")
}

// ClassifyWithCode additionally folds an optional code snippet into the
// model and retrieval input. Rules see the error text alone: a keyword
// inside pasted code must not produce a certainty-1.0 match.
func (s *Service) ClassifyWithCode(ctx context.Context, errText, code string) (*guidance.Result, error) {
	queryID := uuid.NewString()
	normErr := normalize.Text(errText)
	normFull := normalize.Text(normalize.Combine(errText, code))

	log := s.logger.With(zap.String("query_id", queryID))

	v := s.classify(normErr, normFull, log)
	result, err := s.compose(ctx, v, normFull, log)
	if err != nil {
		return nil, err
	}

	log.Info("classified",
		zap.Bool("focused", result.Focused),
		zap.Int("checklists", len(result.Checklists)),
		zap.Int("similar_cases", len(result.SimilarCases)),
	)
	return result, nil
}

// classify runs the staged decision: rules short-circuit the model entirely.
// Rules evaluate the normalized error text only; the model scores the full
// combined input.
func (s *Service) classify(normErr, normFull string, log *zap.Logger) verdict {
	if m, ok := s.rules.Evaluate(normErr); ok {
		log.Debug("rule matched",
			zap.String("rule", m.Rule),
			zap.String("family", string(m.Family)),
		)
		return ruleMatched{match: m}
	}

	dist := s.model.Distribution(normFull)
	decision := s.policy.Decide(dist)
	log.Debug("model decided",
		zap.String("top", string(decision.Top)),
		zap.Float64("confidence", decision.Confidence),
		zap.Bool("trusted", decision.Trusted),
	)

	if decision.Trusted {
		return modelTrusted{decision: decision}
	}
	return modelHedged{decision: decision}
}

// compose renders the verdict into guidance. The switch is exhaustive over
// the sealed verdict set.
func (s *Service) compose(ctx context.Context, v verdict, normText string, log *zap.Logger) (*guidance.Result, error) {
	switch v := v.(type) {
	case ruleMatched:
		// Rules are certain; retrieval adds nothing a checklist for the
		// exact family does not already cover.
		return &guidance.Result{
			Focused: true,
			Prediction: &guidance.Prediction{
				Family:     v.match.Family,
				Confidence: 1.0,
				Source:     guidance.SourceRule,
			},
			Checklists: []guidance.Checklist{s.checklist(v.match.Family, 0, normText)},
		}, nil

	case modelTrusted:
		similar, err := s.similar(ctx, normText, log)
		if err != nil {
			return nil, err
		}
		return &guidance.Result{
			Focused: true,
			Prediction: &guidance.Prediction{
				Family:     v.decision.Top,
				Confidence: v.decision.Confidence,
				Source:     guidance.SourceModel,
			},
			Checklists:   []guidance.Checklist{s.checklist(v.decision.Top, 0, normText)},
			SimilarCases: similar,
		}, nil

	case modelHedged:
		checklists := make([]guidance.Checklist, 0, len(v.decision.Alternatives))
		for _, alt := range v.decision.Alternatives {
			checklists = append(checklists, s.checklist(alt.Family, alt.Probability, normText))
		}
		return &guidance.Result{
			Focused:    false,
			Checklists: checklists,
			Prompt:     "Paste the exact traceback (last few lines) for a confident answer.",
		}, nil

	default:
		return nil, fmt.Errorf("unknown verdict %T", v)
	}
}

// checklist builds one candidate's steps: the family playbook plus any
// globally triggered keyword tips, deduplicated in order.
func (s *Service) checklist(f family.Family, probability float64, normText string) guidance.Checklist {
	steps := s.playbooks.Checklist(f)
	seen := make(map[string]struct{}, len(steps))
	for _, st := range steps {
		seen[st] = struct{}{}
	}
	for _, tip := range s.playbooks.Tips(normText) {
		if _, dup := seen[tip]; dup {
			continue
		}
		seen[tip] = struct{}{}
		steps = append(steps, tip)
	}
	return guidance.Checklist{Family: f, Probability: probability, Steps: steps}
}

func (s *Service) similar(ctx context.Context, normText string, log *zap.Logger) ([]guidance.SimilarCase, error) {
	if s.index == nil {
		return nil, nil
	}
	matches, err := s.index.Similar(ctx, normText, s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieving similar cases: %w", err)
	}
	out := make([]guidance.SimilarCase, 0, len(matches))
	for _, m := range matches {
		out = append(out, guidance.SimilarCase{
			ID:     m.Case.ID,
			Family: m.Case.Family,
			Text:   m.Case.Text,
			Fix:    m.Case.Fix,
			Score:  m.Score,
		})
	}
	return out, nil
}
