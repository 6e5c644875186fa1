// Package similarity scores how likely two findings describe the same issue.
//
// Text fields are compared with a token set ratio after Unicode
// normalization; the finding type contributes an exact-match boost. Fields
// missing on either side drop out and the remaining weights are
// renormalized.
package similarity

import (
	"fmt"
	"strings"

	"github.com/agentstation/ghostmerge/pkg/constants"
	"github.com/agentstation/ghostmerge/pkg/errors"
	"github.com/agentstation/ghostmerge/pkg/findings"
)

// Weights are the relative contributions of each compared field.
type Weights struct {
	Title       float64 `json:"title" yaml:"title"`
	Description float64 `json:"description" yaml:"description"`
	FindingType float64 `json:"finding_type" yaml:"finding_type"`
	Impact      float64 `json:"impact" yaml:"impact"`
	Mitigation  float64 `json:"mitigation" yaml:"mitigation"`
}

// DefaultWeights returns the standard title/description/type weighting.
func DefaultWeights() Weights {
	return Weights{
		Title:       constants.DefaultWeightTitle,
		Description: constants.DefaultWeightDescription,
		FindingType: constants.DefaultWeightFindingType,
	}
}

// Validate rejects negative weights and an all-zero weighting.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"match_weight_title", w.Title},
		{"match_weight_description", w.Description},
		{"match_weight_finding_type", w.FindingType},
		{"match_weight_impact", w.Impact},
		{"match_weight_mitigation", w.Mitigation},
	}
	var sum float64
	for _, n := range named {
		if n.value < 0 {
			return errors.NewValidationError(n.name, n.value, "weight must not be negative")
		}
		sum += n.value
	}
	if sum == 0 {
		return errors.NewValidationError("match_weight", sum, "at least one weight must be positive")
	}
	return nil
}

func (w Weights) sum() float64 {
	return w.Title + w.Description + w.FindingType + w.Impact + w.Mitigation
}

// Component is one field's contribution to a score.
type Component struct {
	Field   string  `json:"field" yaml:"field"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Score   float64 `json:"score" yaml:"score"`
	Applied bool    `json:"applied" yaml:"applied"`
}

// Breakdown explains a score.
type Breakdown struct {
	Score      float64     `json:"score" yaml:"score"`
	Components []Component `json:"components" yaml:"components"`
	Gated      bool        `json:"gated,omitempty" yaml:"gated,omitempty"` // title below the minimum
}

// String renders the applied components, e.g. "title=0.93 finding_type=1.00".
func (b Breakdown) String() string {
	var parts []string
	for _, c := range b.Components {
		if c.Applied {
			parts = append(parts, fmt.Sprintf("%s=%.2f", c.Field, c.Score))
		}
	}
	if len(parts) == 0 {
		return "no comparable fields"
	}
	return strings.Join(parts, " ")
}

// Scorer computes weighted similarity between findings. It is pure and
// safe for concurrent use.
type Scorer struct {
	weights  Weights
	minTitle float64
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMinTitle gates scoring on the title: when both titles are present
// and their similarity is below floor, only the title contributes, at its
// share of the total weight.
func WithMinTitle(floor float64) Option {
	return func(s *Scorer) {
		s.minTitle = floor
	}
}

// New creates a Scorer after validating the weights.
func New(w Weights, opts ...Option) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{weights: w}
	for _, opt := range opts {
		opt(s)
	}
	if s.minTitle < 0 || s.minTitle > 1 {
		return nil, errors.NewValidationError("match_min_title", s.minTitle, "must be within [0,1]")
	}
	return s, nil
}

// NewDefault creates a Scorer with DefaultWeights.
func NewDefault() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// Weights returns the scorer's weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score returns a similarity in [0,1]. It is 0 when no field applies.
func (s *Scorer) Score(left, right findings.Finding) float64 {
	return s.Breakdown(left, right).Score
}

// Breakdown returns the score with its per-field components.
func (s *Scorer) Breakdown(left, right findings.Finding) Breakdown {
	title := textComponent(findings.FieldTitle, s.weights.Title, left.Title, right.Title)
	if title.Applied && title.Score < s.minTitle {
		return Breakdown{
			Score:      clamp(title.Score * s.weights.Title / s.weights.sum()),
			Components: []Component{title},
			Gated:      true,
		}
	}

	components := []Component{
		title,
		textComponent(findings.FieldDescription, s.weights.Description, left.Description, right.Description),
		typeComponent(s.weights.FindingType, left.FindingType, right.FindingType),
		textComponent(findings.FieldImpact, s.weights.Impact, left.Impact, right.Impact),
		textComponent(findings.FieldMitigation, s.weights.Mitigation, left.Mitigation, right.Mitigation),
	}

	var weighted, total float64
	for _, c := range components {
		if !c.Applied || c.Weight == 0 {
			continue
		}
		weighted += c.Weight * c.Score
		total += c.Weight
	}

	b := Breakdown{Components: components}
	if total > 0 {
		b.Score = clamp(weighted / total)
	}
	return b
}

func textComponent(field string, weight float64, left, right string) Component {
	c := Component{Field: field, Weight: weight}
	lt, rt := Tokens(left), Tokens(right)
	if len(lt) == 0 || len(rt) == 0 {
		return c
	}
	c.Applied = true
	c.Score = TokenSetRatio(lt, rt)
	return c
}

func typeComponent(weight float64, left, right string) Component {
	c := Component{Field: findings.FieldFindingType, Weight: weight}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if left == "" || right == "" {
		return c
	}
	c.Applied = true
	if left == right {
		c.Score = 1
	}
	return c
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
