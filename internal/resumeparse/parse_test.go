package resumeparse

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := f.Write([]byte(doc)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>Jane </w:t></w:r><w:r><w:t>Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>   </w:t></w:r></w:p>`+
			`<w:tbl><w:tr>`+
			`<w:tc><w:p><w:r><w:t>Go</w:t></w:r></w:p><w:p><w:r><w:t>Kubernetes</w:t></w:r></w:p></w:tc>`+
			`<w:tc><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p></w:tc>`+
			`</w:tr></w:tbl>`+
			`<w:p><w:r><w:t>Backend engineer</w:t></w:r></w:p>`,
	)

	text, err := Extract(data, "Resume.DOCX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := "Jane Doe\nBackend engineer\nGo\nKubernetes"
	if text != expect {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", text, expect)
	}
}

func TestExtractDOCXBroken(t *testing.T) {
	_, err := Extract([]byte("not a zip"), "resume.docx")
	if err == nil || !strings.Contains(err.Error(), "could not read DOCX") {
		t.Fatalf("expected readable DOCX error, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	text, err := Extract([]byte("Jane\xffDoe"), "resume.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "JaneDoe" {
		t.Fatalf("expected invalid bytes dropped, got %q", text)
	}
}

func TestExtractPDF(t *testing.T) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Text(72, 72, "JaneDoe")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}

	text, err := Extract(buf.Bytes(), "resume.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "JaneDoe") {
		t.Fatalf("expected text from pdf, got %q", text)
	}
}

func TestExtractPDFBroken(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4 garbage"), "resume.pdf")
	if err == nil || !strings.Contains(err.Error(), "Try converting to .docx or .txt") {
		t.Fatalf("expected readable PDF error, got %v", err)
	}
}

func TestExtractUnsupported(t *testing.T) {
	for _, name := range []string{"resume.rtf", "resume"} {
		if _, err := Extract([]byte("x"), name); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat for %s, got %v", name, err)
		}
	}
}
