package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXExtractor handles .docx files. Each paragraph becomes a line and each
// table row becomes one " | " separated line, matching the CSV and HTML
// extractors so tabular syllabi segment the same way.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(r io.Reader, filename string) (string, error) {
	path, size, err := spoolTemp(r, "studyplan-docx-*.docx")
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	doc, err := docx.Parse(f, size)
	if err != nil {
		return "", fmt.Errorf("parse docx %s: %w", filename, err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if text := paragraphText(v); text != "" {
				lines = append(lines, text)
			}
		case *docx.Table:
			lines = append(lines, tableLines(v)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func tableLines(tbl *docx.Table) []string {
	var lines []string
	for _, row := range tbl.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				if text := paragraphText(p); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, ", "))
		}
		if strings.TrimSpace(strings.Join(cells, "")) != "" {
			lines = append(lines, strings.Join(cells, " | "))
		}
	}
	return lines
}

func paragraphText(para *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				b.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}
