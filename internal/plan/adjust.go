package plan

// Adjust rescales day dayIndex (0-based) of p so its topics sum to
// targetHours, keeping their proportions. A day with no hours is left as is.
// No other day is touched.
func Adjust(p *StudyPlan, dayIndex int, targetHours float64) error {
	if p == nil || dayIndex < 0 || dayIndex >= len(p.Days) {
		count := 0
		if p != nil {
			count = len(p.Days)
		}
		return &DayIndexError{Index: dayIndex, Count: count}
	}
	if !validHours(targetHours) {
		return ErrInvalidHours
	}

	day := &p.Days[dayIndex]
	ratio := 1.0
	if current := day.TotalHours(); current > 0 {
		ratio = targetHours / current
	}
	for i := range day.Topics {
		day.Topics[i].Hours = round2(day.Topics[i].Hours * ratio)
	}
	return nil
}
