package plan

import (
	"errors"
	"fmt"
	"math"
)

// NoTopicsMessage is the user-facing text for an empty segmentation.
const NoTopicsMessage = "No chapters/topics found to generate a study plan."

var (
	// ErrNoTopics means segmentation produced nothing to schedule.
	ErrNoTopics = errors.New("no topics found")
	// ErrInvalidDays means the day count was not a positive integer.
	ErrInvalidDays = errors.New("days must be a positive integer")
	// ErrInvalidHours means an hour budget was not a positive finite number.
	ErrInvalidHours = errors.New("hours must be a positive number")
	// ErrInvalidWeight means a topic weight was not a positive finite number.
	ErrInvalidWeight = errors.New("topic weight must be a positive number")
)

// DayIndexError reports a day index outside the plan.
type DayIndexError struct {
	Index int // 0-based
	Count int
}

func (e *DayIndexError) Error() string {
	return fmt.Sprintf("day index %d out of range [0, %d)", e.Index, e.Count)
}

// Topic is a segmented topic and its study weight.
type Topic struct {
	Name   string
	Weight float64
}

// TopicAllocation is the time given to one topic on one day.
type TopicAllocation struct {
	Name  string  `json:"name" yaml:"name"`
	Hours float64 `json:"hours" yaml:"hours"`
}

// DayPlan is one labelled day of a plan.
type DayPlan struct {
	Day    string            `json:"day" yaml:"day"`
	Topics []TopicAllocation `json:"topics" yaml:"topics"`
}

// TotalHours sums the day's allocations.
func (d DayPlan) TotalHours() float64 {
	var sum float64
	for _, t := range d.Topics {
		sum += t.Hours
	}
	return sum
}

// StudyPlan is the ordered sequence of days produced by Allocate.
type StudyPlan struct {
	Days []DayPlan `json:"study_plan" yaml:"study_plan"`
}

// TotalHours sums every allocation in the plan.
func (p *StudyPlan) TotalHours() float64 {
	var sum float64
	for _, d := range p.Days {
		sum += d.TotalHours()
	}
	return sum
}

// Clone returns a deep copy of p.
func (p *StudyPlan) Clone() *StudyPlan {
	out := &StudyPlan{Days: make([]DayPlan, len(p.Days))}
	for i, d := range p.Days {
		out.Days[i] = DayPlan{Day: d.Day, Topics: append([]TopicAllocation(nil), d.Topics...)}
		if d.Topics != nil && out.Days[i].Topics == nil {
			out.Days[i].Topics = []TopicAllocation{}
		}
	}
	return out
}

// DayLabel formats the 0-based index i as "Day N".
func DayLabel(i int) string {
	return fmt.Sprintf("Day %d", i+1)
}

// Result is the wire shape of a generation outcome: either the plan or an error.
type Result struct {
	StudyPlan []DayPlan `json:"study_plan,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewResult converts the output of Generate into its wire shape.
func NewResult(p *StudyPlan, err error) Result {
	switch {
	case errors.Is(err, ErrNoTopics):
		return Result{Error: NoTopicsMessage}
	case err != nil:
		return Result{Error: err.Error()}
	case p == nil:
		return Result{Error: NoTopicsMessage}
	}
	return Result{StudyPlan: p.Days}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func validHours(h float64) bool {
	return h > 0 && !math.IsInf(h, 0) && !math.IsNaN(h)
}
