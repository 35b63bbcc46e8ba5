package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/spigell/job-bot/internal/ai"
)

const (
	pdfMargin = 54 // 0.75in
	pdfFont   = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	pdfBrand = rgb{0x4F, 0x46, 0xE5}
	pdfGray  = rgb{0x44, 0x44, 0x44}
	pdfBlack = rgb{0, 0, 0}
)

// pdfWriter lays out resume blocks top to bottom using the core Helvetica fonts.
type pdfWriter struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
	width     float64
}

func newPDFWriter() *pdfWriter {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreator("job-bot", true)
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()

	return &pdfWriter{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		width:     pageWidth - 2*pdfMargin,
	}
}

func (w *pdfWriter) text(text, style string, size float64, color rgb, align string, before, after float64) {
	if before > 0 {
		w.pdf.Ln(before)
	}
	w.pdf.SetFont(pdfFont, style, size)
	w.pdf.SetTextColor(color.r, color.g, color.b)
	w.pdf.MultiCell(w.width, size*1.4, w.translate(text), "", align, false)
	if after > 0 {
		w.pdf.Ln(after)
	}
}

func (w *pdfWriter) section(title string) {
	w.text(strings.ToUpper(title), "B", 11, pdfBrand, "L", 10, 2)

	y := w.pdf.GetY()
	w.pdf.SetDrawColor(pdfBrand.r, pdfBrand.g, pdfBrand.b)
	w.pdf.SetLineWidth(1)
	w.pdf.Line(pdfMargin, y, pdfMargin+w.width, y)
	w.pdf.Ln(4)
}

func (w *pdfWriter) bullet(text string) {
	w.pdf.SetX(pdfMargin + 12)
	w.pdf.SetFont(pdfFont, "", 10)
	w.pdf.SetTextColor(pdfBlack.r, pdfBlack.g, pdfBlack.b)
	w.pdf.MultiCell(w.width-12, 14, w.translate("• "+text), "", "L", false)
	w.pdf.Ln(1)
}

func (w *pdfWriter) bytes() ([]byte, error) {
	var out bytes.Buffer
	if err := w.pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}

// BuildPDF renders the same layout as BuildDOCX as a Letter-size PDF. Characters outside
// Windows-1252 are dropped by the core fonts.
func BuildPDF(resume *ai.TailoredResume) ([]byte, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}

	w := newPDFWriter()

	w.text(resume.Name, "B", 20, pdfBlack, "C", 0, 2)
	if contact := contactLine(resume); contact != "" {
		w.text(contact, "", 9, pdfGray, "C", 0, 8)
	}

	if summary := strings.TrimSpace(resume.Summary); summary != "" {
		w.section("Professional Summary")
		w.text(summary, "", 10, pdfBlack, "L", 0, 4)
	}

	if len(resume.Experience) > 0 {
		w.section("Experience")
		for _, job := range resume.Experience {
			w.text(job.Title, "B", 11, pdfBlack, "L", 6, 1)
			if meta := metaLine(job.Company, job.Location, job.Dates); meta != "" {
				w.text(meta, "I", 10, pdfGray, "L", 0, 2)
			}
			for _, bullet := range job.Bullets {
				w.bullet(bullet)
			}
		}
	}

	if len(resume.Education) > 0 {
		w.section("Education")
		for _, edu := range resume.Education {
			w.text(edu.Degree, "B", 11, pdfBlack, "L", 6, 1)
			if meta := metaLine(edu.School, edu.Location, edu.Dates); meta != "" {
				w.text(meta, "I", 10, pdfGray, "L", 0, 2)
			}
			if details := strings.TrimSpace(edu.Details); details != "" {
				w.text(details, "", 10, pdfBlack, "L", 0, 4)
			}
		}
	}

	if len(resume.Skills) > 0 {
		w.section("Skills")
		for _, row := range skillRows(resume.Skills) {
			w.text(row, "", 10, pdfBlack, "L", 0, 4)
		}
	}

	if len(resume.Certifications) > 0 {
		w.section("Certifications")
		for _, cert := range resume.Certifications {
			w.bullet(cert)
		}
	}

	return w.bytes()
}
