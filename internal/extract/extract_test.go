package extract

import (
	"errors"
	"testing"
)

func TestFileExtractorSupports(t *testing.T) {
	e := NewFileExtractor()

	testCases := []struct {
		filename string
		want     bool
	}{
		{"doc.txt", true},
		{"doc.pdf", true},
		{"DOC.TXT", true},
		{"report.PDF", true},
		{"data.csv", false},
		{"archive.tar.gz", false},
		{"noext", false},
	}

	for _, tc := range testCases {
		if got := e.Supports(tc.filename); got != tc.want {
			t.Errorf("Supports(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestFileExtractorTxtPassthrough(t *testing.T) {
	e := NewFileExtractor()

	text, err := e.Extract("doc.txt", []byte("line one\nline two"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "line one\nline two" {
		t.Errorf("Extract returned %q", text)
	}
}

func TestFileExtractorUnsupported(t *testing.T) {
	e := NewFileExtractor()

	if _, err := e.Extract("data.csv", []byte("a,b")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got err %v, want ErrUnsupportedFormat", err)
	}
}

func TestFileExtractorMalformedPDF(t *testing.T) {
	e := NewFileExtractor()

	if _, err := e.Extract("doc.pdf", []byte("not a pdf")); err == nil {
		t.Error("expected error for malformed pdf input")
	}
}
