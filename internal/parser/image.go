package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ImageExtractor runs an external OCR command over scanned syllabus images.
type ImageExtractor struct {
	Command string
	Args    []string // "{input}" is replaced with the image path
}

func (e *ImageExtractor) Extract(r io.Reader, filename string) (string, error) {
	if e.Command == "" {
		return "", fmt.Errorf("no OCR command configured")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path, _, err := spoolTemp(r, "studyplan-img-*"+ext)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	args := make([]string, 0, len(e.Args)+1)
	substituted := false
	for _, a := range e.Args {
		if strings.Contains(a, "{input}") {
			a = strings.ReplaceAll(a, "{input}", path)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append([]string{path}, args...)
	}

	cmd := exec.Command(e.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ocr %s: %w: %s", e.Command, err, truncate(strings.TrimSpace(stderr.String()), 200))
	}
	return string(out), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
