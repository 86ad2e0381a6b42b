package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extractor converts an uploaded document into line-oriented plain text.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// Options tunes the extractors that shell out or guard resource use.
type Options struct {
	MaxPDFPages       int  // 0 means no limit
	FallbackPdftotext bool // try pdftotext when the Go PDF reader fails
	OCRCommand        string
	OCRArgs           []string // "{input}" is replaced with the image path
}

// DefaultOptions runs tesseract in single-block mode.
func DefaultOptions() Options {
	return Options{
		MaxPDFPages:       200,
		FallbackPdftotext: true,
		OCRCommand:        "tesseract",
		OCRArgs:           []string{"{input}", "stdout", "--psm", "6"},
	}
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".png":      true,
	".jpg":      true,
	".jpeg":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{MaxPages: opts.MaxPDFPages, FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".png", ".jpg", ".jpeg":
		return &ImageExtractor{Command: opts.OCRCommand, Args: opts.OCRArgs}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Source is one named document to extract.
type Source struct {
	Name string
	R    io.Reader
}

// ExtractAll extracts every source in order and joins the results with a
// blank line. The first failure aborts the whole batch.
func ExtractAll(sources []Source, opts Options) (string, error) {
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		ex, err := ForFile(src.Name, opts)
		if err != nil {
			return "", fmt.Errorf("%s: %w", src.Name, err)
		}
		text, err := ex.Extract(src.R, src.Name)
		if err != nil {
			return "", fmt.Errorf("%s: %w", src.Name, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// spoolTemp copies r into a temp file for libraries and tools that need a
// path or a ReadSeeker. The caller removes the returned path.
func spoolTemp(r io.Reader, pattern string) (string, int64, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), size, nil
}
