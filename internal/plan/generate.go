package plan

import (
	"github.com/dgallion1/studyplan/internal/segment"
	"github.com/dgallion1/studyplan/internal/weight"
)

// Generator runs raw text through segmentation, weighting and allocation.
type Generator struct {
	Segmenter *segment.Segmenter
	Strategy  weight.Strategy
}

// NewGenerator returns a Generator, substituting the default segmenter and
// keyword strategy for nil arguments.
func NewGenerator(seg *segment.Segmenter, strategy weight.Strategy) *Generator {
	if seg == nil {
		seg = segment.Default()
	}
	if strategy == nil {
		strategy = weight.NewKeywordComplexity(nil)
	}
	return &Generator{Segmenter: seg, Strategy: strategy}
}

// Topics segments text and weighs each topic.
func (g *Generator) Topics(text string) []Topic {
	names := g.Segmenter.Segment(text)
	weights := weight.Assign(g.Strategy, names)
	topics := make([]Topic, len(names))
	for i, n := range names {
		topics[i] = Topic{Name: n, Weight: weights[i]}
	}
	return topics
}

// Generate builds a plan from raw syllabus text. It returns ErrNoTopics
// without allocating when segmentation finds nothing.
func (g *Generator) Generate(text string, days int, hoursPerDay float64) (*StudyPlan, error) {
	topics := g.Topics(text)
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	return Allocate(topics, days, hoursPerDay)
}
