// Package render turns a study plan into text for people: a flat text form
// for chat transports, Markdown, and a standalone HTML page for download.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/yuin/goldmark"
)

// Title heads every rendered document.
const Title = "Your Study Plan"

// Renderer writes a plan in one output format.
type Renderer interface {
	ContentType() string
	Render(w io.Writer, p *plan.StudyPlan) error
}

// ForFormat returns the renderer for "text", "markdown" or "html".
func ForFormat(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "text", "txt":
		return TextRenderer{}, nil
	case "markdown", "md":
		return MarkdownRenderer{}, nil
	case "html":
		return HTMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported render format: %s", format)
	}
}

// Text flattens p into "Day N" blocks with one indented line per topic.
func Text(p *plan.StudyPlan) string {
	var b strings.Builder
	for _, d := range p.Days {
		b.WriteString(d.Day)
		b.WriteByte('\n')
		for _, t := range d.Topics {
			fmt.Fprintf(&b, "  - %s (%s hours)\n", t.Name, formatHours(t.Hours))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Duration formats fractional hours as "Xh Ym".
func Duration(hours float64) string {
	mins := int(math.Round(hours * 60))
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}

// Markdown renders p as a titled document with a section per day.
func Markdown(p *plan.StudyPlan) string {
	var b strings.Builder
	b.WriteString("# " + Title + "\n\n")
	for _, d := range p.Days {
		fmt.Fprintf(&b, "## %s\n\n", escapeMarkdown(d.Day))
		if len(d.Topics) == 0 {
			b.WriteString("_Rest day._\n\n")
			continue
		}
		for _, t := range d.Topics {
			fmt.Fprintf(&b, "- %s - %s\n", escapeMarkdown(t.Name), Duration(t.Hours))
		}
		fmt.Fprintf(&b, "\n**Total: %s**\n\n", Duration(d.TotalHours()))
	}
	return b.String()
}

// HTML renders the Markdown form of p into a standalone page.
func HTML(w io.Writer, p *plan.StudyPlan) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(p)), &body); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	_, err := fmt.Fprintf(w, pageTemplate, html.EscapeString(Title), body.String())
	return err
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>body{font-family:Helvetica,Arial,sans-serif;max-width:42rem;margin:2rem auto;padding:0 1rem}h1{text-align:center}</style>
</head>
<body>
%s</body>
</html>
`

type TextRenderer struct{}

func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(w io.Writer, p *plan.StudyPlan) error {
	_, err := io.WriteString(w, Text(p))
	return err
}

type MarkdownRenderer struct{}

func (MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

func (MarkdownRenderer) Render(w io.Writer, p *plan.StudyPlan) error {
	_, err := io.WriteString(w, Markdown(p))
	return err
}

type HTMLRenderer struct{}

func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

func (HTMLRenderer) Render(w io.Writer, p *plan.StudyPlan) error {
	return HTML(w, p)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`,
	"#", `\#`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
