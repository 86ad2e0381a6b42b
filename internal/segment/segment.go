package segment

import (
	"regexp"
	"strings"
)

// Segmenter turns extracted syllabus text into an ordered, deduplicated topic list.
// A Segmenter is immutable after New and safe for concurrent use.
type Segmenter struct {
	rules        Rules
	unitHeader   *regexp.Regexp
	unitAnywhere *regexp.Regexp
}

// New compiles a Segmenter from rules. Empty fields use the defaults.
func New(rules Rules) (*Segmenter, error) {
	rules = rules.withDefaults()
	header, anywhere, err := compileUnitPatterns(rules.UnitKeywords)
	if err != nil {
		return nil, err
	}
	return &Segmenter{
		rules:        rules,
		unitHeader:   header,
		unitAnywhere: anywhere,
	}, nil
}

// Default returns a Segmenter over DefaultRules.
func Default() *Segmenter {
	s, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return s
}

// Rules returns the effective rule table.
func (s *Segmenter) Rules() Rules {
	return s.rules
}

// unitContext is the unit/topic-header state carried between lines.
type unitContext struct {
	unit   string
	header string
}

// prefix joins the active context with name, like a breadcrumb.
func (c unitContext) prefix(name string) string {
	parts := make([]string, 0, 3)
	if c.unit != "" {
		parts = append(parts, c.unit)
	}
	if c.header != "" {
		parts = append(parts, c.header)
	}
	parts = append(parts, name)
	return strings.Join(parts, " - ")
}

// Segment classifies each line of raw and returns topics in document order.
// The result is never nil; an empty result means no topics were found.
func (s *Segmenter) Segment(raw string) []string {
	topics := make([]string, 0)
	seen := make(map[string]bool)
	emit := func(topic string) {
		if topic == "" || seen[topic] {
			return
		}
		seen[topic] = true
		topics = append(topics, topic)
	}

	var ctx unitContext
	for _, rawLine := range strings.Split(raw, "\n") {
		line := s.Classify(rawLine)
		switch line.Kind {
		case UnitHeader:
			ctx = unitContext{unit: line.Unit}
			if line.Remainder != "" {
				ctx.header = line.Remainder
				emit(ctx.unit + " - " + line.Remainder)
			}
		case TopicHeader:
			ctx.header = line.Text
			emit(unitContext{unit: ctx.unit}.prefix(line.Text))
		case Subtopic:
			for _, frag := range line.Fragments {
				emit(ctx.prefix(frag))
			}
		}
	}
	return topics
}

// Classify normalizes one raw line and runs it through the rule list.
func (s *Segmenter) Classify(rawLine string) Line {
	line := s.normalize(rawLine)
	for _, r := range classifiers {
		if l, ok := r(s, line); ok {
			return l
		}
	}
	return Line{Kind: Discard, Text: line}
}

// normalize collapses whitespace and flattens table rows into comma lists.
func (s *Segmenter) normalize(line string) string {
	line = strings.Join(strings.Fields(line), " ")
	if strings.Contains(line, "|") {
		line = s.flattenTableRow(line)
	}
	return line
}

// flattenTableRow turns "1 | Sorting Algorithms | 6 hrs" into "Sorting Algorithms".
func (s *Segmenter) flattenTableRow(line string) string {
	cells := strings.Split(line, "|")
	kept := make([]string, 0, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" || isDigits(c) || s.isDropWord(c) || isHoursCell(c) || s.isBoilerplate(c) {
			continue
		}
		kept = append(kept, c)
	}
	return strings.Join(kept, ", ")
}

func (s *Segmenter) isDropWord(text string) bool {
	for _, w := range s.rules.DropWords {
		if strings.EqualFold(text, w) {
			return true
		}
	}
	return false
}

var hoursCellRe = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?\s*(?:hrs?|hours?)\.?$`)

func isHoursCell(c string) bool {
	return hoursCellRe.MatchString(c)
}
