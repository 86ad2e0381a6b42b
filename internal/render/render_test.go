package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/studyplan/internal/plan"
)

func samplePlan() *plan.StudyPlan {
	return &plan.StudyPlan{Days: []plan.DayPlan{
		{Day: "Day 1", Topics: []plan.TopicAllocation{{Name: "Unit I - Sorting Algorithms", Hours: 4}}},
		{Day: "Day 2", Topics: []plan.TopicAllocation{
			{Name: "Unit I - Sorting Algorithms", Hours: 2},
			{Name: "Merge sort", Hours: 1.75},
		}},
		{Day: "Day 3", Topics: []plan.TopicAllocation{}},
	}}
}

func TestText(t *testing.T) {
	got := Text(samplePlan())
	want := "Day 1\n" +
		"  - Unit I - Sorting Algorithms (4 hours)\n" +
		"\n" +
		"Day 2\n" +
		"  - Unit I - Sorting Algorithms (2 hours)\n" +
		"  - Merge sort (1.75 hours)\n" +
		"\n" +
		"Day 3\n" +
		"\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{0, "0h 0m"},
		{1.5, "1h 30m"},
		{1.75, "1h 45m"},
		{0.33, "0h 20m"},
		{2.999, "3h 0m"},
		{-1, "0h 0m"},
	}
	for _, tc := range tests {
		if got := Duration(tc.hours); got != tc.want {
			t.Errorf("Duration(%v): expected %q, got %q", tc.hours, tc.want, got)
		}
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(samplePlan())
	for _, want := range []string{
		"# Your Study Plan\n",
		"## Day 1\n",
		"- Unit I - Sorting Algorithms - 4h 0m\n",
		"- Merge sort - 1h 45m\n",
		"**Total: 3h 45m**",
		"## Day 3\n\n_Rest day._",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, got)
		}
	}
}

func TestHTML_EscapesTopicNames(t *testing.T) {
	p := &plan.StudyPlan{Days: []plan.DayPlan{
		{Day: "Day 1", Topics: []plan.TopicAllocation{{Name: "<script>alert(1)</script> *bold*", Hours: 1}}},
	}}
	var buf bytes.Buffer
	if err := HTML(&buf, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("expected script tag to be escaped, got:\n%s", out)
	}
	if strings.Contains(out, "<em>bold</em>") {
		t.Errorf("expected emphasis markers to be literal, got:\n%s", out)
	}
	for _, want := range []string{"<title>Your Study Plan</title>", "<h2>Day 1</h2>", "<li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
	}{
		{"text", "text/plain; charset=utf-8"},
		{"md", "text/markdown; charset=utf-8"},
		{"HTML", "text/html; charset=utf-8"},
	}
	for _, tc := range tests {
		r, err := ForFormat(tc.format)
		if err != nil {
			t.Fatalf("ForFormat(%q): unexpected error: %v", tc.format, err)
		}
		if r.ContentType() != tc.contentType {
			t.Errorf("ForFormat(%q): expected %q, got %q", tc.format, tc.contentType, r.ContentType())
		}
		var buf bytes.Buffer
		if err := r.Render(&buf, samplePlan()); err != nil {
			t.Errorf("Render(%q): %v", tc.format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Render(%q): empty output", tc.format)
		}
	}
	if _, err := ForFormat("pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
