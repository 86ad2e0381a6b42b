package chat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/studyplan/internal/plan"
)

// HelpText lists the commands Interpret understands.
const HelpText = `Here are the available commands:
1. "adjust day X to Y hours" - Modify hours for a specific day
2. "busy on day X, available Y hours" - Mark a day when you have less time
3. "help" - Show this help message`

// FallbackText is returned when no command is recognised.
const FallbackText = "I can help you adjust your study plan. Try saying 'help' to see available commands."

// Response is the outcome of one chat message. UpdatedPlan is set only when
// the plan was changed.
type Response struct {
	Response    string          `json:"response" yaml:"response"`
	UpdatedPlan *plan.StudyPlan `json:"updated_plan" yaml:"updated_plan"`
}

var (
	dayRe   = regexp.MustCompile(`day\s+(\d+)`)
	hoursRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)
)

// command is one recognised way of asking for a day to be rescaled.
type command struct {
	trigger   string
	noDay     string
	askHours  string // formatted with the 1-based day
	confirmed string // formatted with the 1-based day and the hours
}

var commands = []command{
	{
		trigger:   "adjust",
		noDay:     "Please specify which day you want to adjust (e.g., 'adjust day 2').",
		askHours:  "How many hours would you like to allocate for Day %d?",
		confirmed: "Adjusted Day %d schedule to %s hours.",
	},
	{
		trigger:   "busy",
		noDay:     "Please specify which day you're busy on (e.g., 'busy on day 2').",
		askHours:  "How many hours are you available on Day %d?",
		confirmed: "Updated Day %d schedule to fit within %s hours.",
	},
}

// Interpret reads message and, when it names a day and an hour budget,
// rescales that day of a copy of p. p itself is never modified.
func Interpret(message string, p *plan.StudyPlan) Response {
	msg := strings.ToLower(message)
	for _, c := range commands {
		if strings.Contains(msg, c.trigger) && strings.Contains(msg, "day") {
			return c.run(msg, p)
		}
	}
	if strings.Contains(msg, "help") {
		return Response{Response: HelpText}
	}
	return Response{Response: FallbackText}
}

func (c command) run(msg string, p *plan.StudyPlan) Response {
	m := dayRe.FindStringSubmatch(msg)
	if m == nil {
		return Response{Response: c.noDay}
	}
	dayCount := len(p.Days)
	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > dayCount {
		return Response{Response: outOfRange(dayCount)}
	}

	h := hoursRe.FindStringSubmatch(msg)
	if h == nil {
		return Response{Response: fmt.Sprintf(c.askHours, day)}
	}
	hours, err := strconv.ParseFloat(h[1], 64)
	if err != nil {
		return Response{Response: fmt.Sprintf(c.askHours, day)}
	}

	updated := p.Clone()
	if err := plan.Adjust(updated, day-1, hours); err != nil {
		var de *plan.DayIndexError
		switch {
		case errors.As(err, &de):
			return Response{Response: outOfRange(de.Count)}
		case errors.Is(err, plan.ErrInvalidHours):
			return Response{Response: "Please enter a number of hours greater than zero."}
		default:
			return Response{Response: FallbackText}
		}
	}
	return Response{
		Response:    fmt.Sprintf(c.confirmed, day, strconv.FormatFloat(hours, 'f', -1, 64)),
		UpdatedPlan: updated,
	}
}

func outOfRange(n int) string {
	return fmt.Sprintf("Please enter a valid day number between 1 and %d.", n)
}
