package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Rules is the data-driven keyword and pattern table the segmenter runs on.
// Zero-valued fields fall back to DefaultRules.
type Rules struct {
	// Boilerplate lines are discarded when they equal one of these, ignoring case.
	Boilerplate []string `yaml:"boilerplate" json:"boilerplate"`
	// UnitKeywords introduce a unit boundary when followed by a roman numeral or digit.
	UnitKeywords []string `yaml:"unit_keywords" json:"unit_keywords"`
	// TopicKeywords mark a line as a section title. Matched case-sensitively.
	TopicKeywords []string `yaml:"topic_keywords" json:"topic_keywords"`
	// DropWords are fragments discarded outright, ignoring case.
	DropWords []string `yaml:"drop_words" json:"drop_words"`
	// MinLineLength is the shortest line considered for subtopics.
	MinLineLength int `yaml:"min_line_length" json:"min_line_length"`
	// MinFragmentLength is the shortest subtopic fragment kept.
	MinFragmentLength int `yaml:"min_fragment_length" json:"min_fragment_length"`
	// MaxCapsWords is the word count at or below which ALL-CAPS fragments are dropped.
	MaxCapsWords int `yaml:"max_caps_words" json:"max_caps_words"`
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	return Rules{
		Boilerplate: []string{
			"UNIT", "CONTENTS", "CONTACT HRS", "CONTACT", "HRS", "PAGE",
			"FOOTER", "EMAIL", "PHONE", "UNIVERSITY", "SYLLABUS",
		},
		UnitKeywords: []string{"unit", "chapter", "module"},
		TopicKeywords: []string{
			"Algorithms", "Notations", "Programming", "Graph", "Trees", "Searching", "Sorting",
		},
		DropWords:         []string{"hrs"},
		MinLineLength:     6,
		MinFragmentLength: 6,
		MaxCapsWords:      4,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if len(r.Boilerplate) == 0 {
		r.Boilerplate = d.Boilerplate
	}
	if len(r.UnitKeywords) == 0 {
		r.UnitKeywords = d.UnitKeywords
	}
	if len(r.TopicKeywords) == 0 {
		r.TopicKeywords = d.TopicKeywords
	}
	if len(r.DropWords) == 0 {
		r.DropWords = d.DropWords
	}
	if r.MinLineLength <= 0 {
		r.MinLineLength = d.MinLineLength
	}
	if r.MinFragmentLength <= 0 {
		r.MinFragmentLength = d.MinFragmentLength
	}
	if r.MaxCapsWords <= 0 {
		r.MaxCapsWords = d.MaxCapsWords
	}
	return r
}

// Kind tags a classified line.
type Kind int

const (
	Discard Kind = iota
	UnitHeader
	TopicHeader
	Subtopic
)

func (k Kind) String() string {
	switch k {
	case UnitHeader:
		return "unit_header"
	case TopicHeader:
		return "topic_header"
	case Subtopic:
		return "subtopic"
	default:
		return "discard"
	}
}

// Line is the classification of one normalized line.
type Line struct {
	Kind Kind
	Text string
	// Unit is the matched unit label, e.g. "Unit I". UnitHeader only.
	Unit string
	// Remainder is the title text following the unit label, if any. UnitHeader only.
	Remainder string
	// Fragments are the surviving subtopic names. Subtopic only.
	Fragments []string
}

// rule inspects a line and reports whether it claimed it.
type rule func(s *Segmenter, line string) (Line, bool)

// classifiers run top to bottom; the first claim wins.
var classifiers = []rule{
	discardBoilerplate,
	matchUnitHeader,
	matchTopicHeader,
	matchSubtopics,
}

var (
	leadingMarkerRe = regexp.MustCompile(`^(?:[-–—•*·]\s*|\d+(?:\.\d+)*[.)]?\s+|\d+(?:\.\d+)*[.)])+`)
	// Lowercase numerals are limited to i, v and x so words like "civil"
	// never read as numbers. Digits may carry section parts, as in 3.1.
	romanOrDigit    = `(?:[IVXLC]+|(?i:[ivx]+)|\d+(?:\.\d+)*)`
	unitSeparator   = `\s*[-–—:.]?\s*`
)

// compileUnitPatterns builds the anchored header pattern and the unanchored
// fragment pattern from the configured keywords.
func compileUnitPatterns(keywords []string) (*regexp.Regexp, *regexp.Regexp, error) {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return nil, nil, fmt.Errorf("no unit keywords configured")
	}
	label := `(?i:` + strings.Join(quoted, "|") + `)` + unitSeparator + romanOrDigit + `\b`
	header, err := regexp.Compile(`^(?:[-–—•*·]\s*)?(` + label + `)`)
	if err != nil {
		return nil, nil, fmt.Errorf("compile unit header pattern: %w", err)
	}
	anywhere, err := regexp.Compile(`\b` + label)
	if err != nil {
		return nil, nil, fmt.Errorf("compile unit fragment pattern: %w", err)
	}
	return header, anywhere, nil
}

func discardBoilerplate(s *Segmenter, line string) (Line, bool) {
	if line == "" || s.isBoilerplate(line) {
		return Line{Kind: Discard, Text: line}, true
	}
	return Line{}, false
}

func matchUnitHeader(s *Segmenter, line string) (Line, bool) {
	loc := s.unitHeader.FindStringSubmatchIndex(line)
	if loc == nil {
		return Line{}, false
	}
	unit := strings.TrimSpace(line[loc[2]:loc[3]])
	rest := strings.TrimSpace(line[loc[1]:])
	rest = strings.TrimSpace(strings.TrimLeft(rest, "-–—:,.•*· "))
	if len([]rune(rest)) < s.rules.MinLineLength {
		rest = ""
	}
	return Line{Kind: UnitHeader, Text: line, Unit: unit, Remainder: rest}, true
}

func matchTopicHeader(s *Segmenter, line string) (Line, bool) {
	for _, kw := range s.rules.TopicKeywords {
		if kw != "" && strings.Contains(line, kw) {
			return Line{Kind: TopicHeader, Text: line}, true
		}
	}
	return Line{}, false
}

func matchSubtopics(s *Segmenter, line string) (Line, bool) {
	if len([]rune(line)) < s.rules.MinLineLength {
		return Line{Kind: Discard, Text: line}, true
	}
	var kept []string
	for _, frag := range splitFragments(line) {
		frag = cleanFragment(frag)
		if s.keepFragment(frag) {
			kept = append(kept, frag)
		}
	}
	if len(kept) == 0 {
		return Line{Kind: Discard, Text: line}, true
	}
	return Line{Kind: Subtopic, Text: line, Fragments: kept}, true
}

// splitFragments splits on commas and semicolons that precede a letter,
// leaving numeric lists such as "1,2,3" intact.
func splitFragments(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] != ',' && line[i] != ';' {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] == ' ' {
			j++
		}
		if j < len(line) && isLetter(line[j]) {
			parts = append(parts, line[start:i])
			start = i + 1
		}
	}
	return append(parts, line[start:])
}

func cleanFragment(frag string) string {
	frag = strings.TrimSpace(frag)
	frag = leadingMarkerRe.ReplaceAllString(frag, "")
	return strings.Trim(frag, "-–— ")
}

func (s *Segmenter) keepFragment(frag string) bool {
	if len([]rune(frag)) < s.rules.MinFragmentLength {
		return false
	}
	if isDigits(frag) || !hasLetter(frag) {
		return false
	}
	for _, w := range s.rules.DropWords {
		if strings.EqualFold(frag, w) {
			return false
		}
	}
	words := strings.Fields(frag)
	if len(words) <= 1 {
		return false
	}
	if s.isBoilerplate(frag) {
		return false
	}
	if len(words) <= s.rules.MaxCapsWords && isAllCaps(frag) {
		return false
	}
	if s.unitAnywhere.MatchString(frag) {
		return false
	}
	return true
}

func (s *Segmenter) isBoilerplate(text string) bool {
	for _, b := range s.rules.Boilerplate {
		if strings.EqualFold(text, b) {
			return true
		}
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAllCaps(s string) bool {
	letters := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters = true
		}
	}
	return letters && strings.ToUpper(s) == s
}
