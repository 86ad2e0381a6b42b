package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLen is the per-message limit of the WhatsApp transport, in characters.
const DefaultMaxLen = 1600

const singleHeader = "📚 Your Study Plan!\n\n"

func partHeader(i, n int) string {
	return fmt.Sprintf("📚 Your Study Plan (Part %d/%d)\n\n", i, n)
}

// Split breaks text into messages of at most maxLen characters, each starting
// with a header. A lone message gets a plain header; several get
// "(Part i/n)" headers. Lines are kept whole unless a single line is longer
// than a message body, in which case it is cut.
func Split(text string, maxLen int) ([]string, error) {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	budget := maxLen - utf8.RuneCountInString(singleHeader)
	if budget < 1 {
		return nil, fmt.Errorf("max length %d leaves no room for a message body", maxLen)
	}
	bodies := pack(text, budget)
	if len(bodies) == 1 {
		return []string{singleHeader + bodies[0]}, nil
	}

	// Part headers grow with the part count, so repack until the count settles.
	for n := len(bodies); ; n = len(bodies) {
		budget = maxLen - utf8.RuneCountInString(partHeader(n, n))
		if budget < 1 {
			return nil, fmt.Errorf("max length %d leaves no room for a message body", maxLen)
		}
		bodies = pack(text, budget)
		if len(bodies) <= n {
			break
		}
	}

	msgs := make([]string, len(bodies))
	for i, b := range bodies {
		msgs[i] = partHeader(i+1, len(bodies)) + b
	}
	return msgs, nil
}

// pack groups lines into bodies of at most budget characters.
func pack(text string, budget int) []string {
	var bodies []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			bodies = append(bodies, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for _, piece := range cutRunes(line, budget) {
			if curLen == 0 && piece == "" {
				continue
			}
			n := utf8.RuneCountInString(piece)
			if curLen > 0 && curLen+1+n > budget {
				flush()
			}
			if curLen > 0 {
				cur.WriteByte('\n')
				curLen++
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	flush()
	return bodies
}

// cutRunes splits s into pieces of at most n runes. An empty s yields one empty piece.
func cutRunes(s string, n int) []string {
	if utf8.RuneCountInString(s) <= n {
		return []string{s}
	}
	var out []string
	r := []rune(s)
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
