package plan

import (
	"cmp"
	"slices"
)

// epsilon absorbs float drift when deciding a topic or a day is used up.
const epsilon = 1e-9

// Targets returns each topic's proportional share of totalHours, in input order.
func Targets(topics []Topic, totalHours float64) []float64 {
	var totalWeight float64
	for _, t := range topics {
		totalWeight += t.Weight
	}
	targets := make([]float64, len(topics))
	if totalWeight <= 0 {
		return targets
	}
	for i, t := range topics {
		targets[i] = totalHours * t.Weight / totalWeight
	}
	return targets
}

// Allocate spreads days*hoursPerDay hours across topics in proportion to their
// weights. Heavier topics are scheduled first, ties keep input order. Each day
// is filled greedily from the earliest unfinished topic; a topic may span days
// and a day may hold several topics. Exactly days DayPlans are returned, so a
// generous budget leaves trailing days empty and a tight one leaves topics
// short.
func Allocate(topics []Topic, days int, hoursPerDay float64) (*StudyPlan, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	if !validHours(hoursPerDay) {
		return nil, ErrInvalidHours
	}
	for _, t := range topics {
		if !validHours(t.Weight) {
			return nil, ErrInvalidWeight
		}
	}

	ordered := slices.Clone(topics)
	slices.SortStableFunc(ordered, func(a, b Topic) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	targets := Targets(ordered, float64(days)*hoursPerDay)
	progress := make([]float64, len(ordered))
	cursor := 0

	plan := &StudyPlan{Days: make([]DayPlan, 0, days)}
	for d := 0; d < days; d++ {
		day := DayPlan{Day: DayLabel(d), Topics: []TopicAllocation{}}
		left := hoursPerDay
		for cursor < len(ordered) && left > epsilon {
			remaining := targets[cursor] - progress[cursor]
			if remaining <= epsilon {
				cursor++
				continue
			}
			h := min(remaining, left)
			day.Topics = append(day.Topics, TopicAllocation{
				Name:  ordered[cursor].Name,
				Hours: round2(h),
			})
			progress[cursor] += h
			left -= h
			if targets[cursor]-progress[cursor] <= epsilon {
				cursor++
			}
		}
		plan.Days = append(plan.Days, day)
	}
	return plan, nil
}
