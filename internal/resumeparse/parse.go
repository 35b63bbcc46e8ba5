// Package resumeparse extracts plain text from uploaded resume files.
package resumeparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for files that are not .docx, .pdf or .txt.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// Extensions lists the accepted upload types.
var Extensions = []string{".docx", ".pdf", ".txt"}

// Extract returns the text content of a resume file. The format is chosen by filename extension.
func Extract(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt":
		return parseText(data), nil
	case ".docx":
		text, err := parseDOCX(data)
		if err != nil {
			return "", fmt.Errorf("could not read DOCX: %w. Try re-saving the file or upload a .txt", err)
		}
		return text, nil
	case ".pdf":
		text, err := parsePDF(data)
		if err != nil {
			return "", fmt.Errorf("could not read PDF: %w. Try converting to .docx or .txt", err)
		}
		return text, nil
	default:
		if ext == "" {
			ext = filename
		}
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// parseText decodes UTF-8, dropping invalid bytes.
func parseText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// parseDOCX reads word/document.xml. Body paragraphs come first, then table cells that do not
// repeat a paragraph already seen.
func parseDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", errors.New("word/document.xml is missing")
	}

	rc, err := document.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	var (
		lines      []string
		cells      []string
		paragraph  strings.Builder
		cell       []string
		tableDepth int
		inText     bool
	)

	decoder := xml.NewDecoder(rc)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tc":
				cell = cell[:0]
			case "p":
				paragraph.Reset()
			case "t":
				inText = true
			case "tab":
				paragraph.WriteByte('\t')
			case "br", "cr":
				paragraph.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth--
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(paragraph.String())
				if text == "" {
					continue
				}
				if tableDepth > 0 {
					cell = append(cell, text)
				} else {
					lines = append(lines, text)
				}
			case "tc":
				if text := strings.TrimSpace(strings.Join(cell, "\n")); text != "" {
					cells = append(cells, text)
				}
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	for _, text := range cells {
		if !slices.Contains(lines, text) {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func parsePDF(data []byte) (text string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n"), nil
}
