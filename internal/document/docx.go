// Package document renders tailored resumes and the application log as downloadable files.
package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/spigell/job-bot/internal/ai"
)

const (
	brandColor = "4F46E5"
	grayColor  = "444444"
	fontName   = "Calibri"

	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

	// Letter page with 0.75in margins, in twentieths of a point.
	sectionXML = `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/>` +
		`<w:pgMar w:top="1080" w:right="1080" w:bottom="1080" w:left="1080" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`

	documentFooter = `</w:body></w:document>`
)

// MIME types of the generated files.
const (
	DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	PDFContentType  = "application/pdf"
	CSVContentType  = "text/csv; charset=utf-8"
)

type runStyle struct {
	bold   bool
	italic bool
	size   int // points
	color  string
}

type paraStyle struct {
	align  string
	before int // points
	after  int // points
	indent int // points
	rule   bool
}

// docxBody accumulates WordprocessingML body content.
type docxBody struct {
	buf bytes.Buffer
}

func (b *docxBody) paragraph(text string, p paraStyle, r runStyle) {
	b.buf.WriteString("<w:p>")
	b.paragraphProps(p)
	if text != "" {
		b.run(text, r)
	}
	b.buf.WriteString("</w:p>")
}

func (b *docxBody) paragraphProps(p paraStyle) {
	b.buf.WriteString("<w:pPr>")
	if p.rule {
		fmt.Fprintf(&b.buf, `<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%s"/></w:pBdr>`, brandColor)
	}
	fmt.Fprintf(&b.buf, `<w:spacing w:before="%d" w:after="%d"/>`, p.before*20, p.after*20)
	if p.indent > 0 {
		fmt.Fprintf(&b.buf, `<w:ind w:left="%d" w:hanging="%d"/>`, p.indent*20, p.indent*20)
	}
	if p.align != "" {
		fmt.Fprintf(&b.buf, `<w:jc w:val="%s"/>`, p.align)
	}
	b.buf.WriteString("</w:pPr>")
}

func (b *docxBody) run(text string, r runStyle) {
	b.buf.WriteString("<w:r><w:rPr>")
	fmt.Fprintf(&b.buf, `<w:rFonts w:ascii="%[1]s" w:hAnsi="%[1]s" w:cs="%[1]s"/>`, fontName)
	if r.bold {
		b.buf.WriteString("<w:b/>")
	}
	if r.italic {
		b.buf.WriteString("<w:i/>")
	}
	if r.color != "" {
		fmt.Fprintf(&b.buf, `<w:color w:val="%s"/>`, r.color)
	}
	if r.size > 0 {
		fmt.Fprintf(&b.buf, `<w:sz w:val="%d"/>`, r.size*2)
	}
	b.buf.WriteString(`</w:rPr><w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b.buf, []byte(text))
	b.buf.WriteString("</w:t></w:r>")
}

// table writes a grid table whose first row is a shaded header.
func (b *docxBody) table(header []string, rows [][]string) {
	b.buf.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/><w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		fmt.Fprintf(&b.buf, `<w:%s w:val="single" w:sz="4" w:space="0" w:color="auto"/>`, side)
	}
	b.buf.WriteString(`</w:tblBorders></w:tblPr>`)

	b.row(header, true)
	for _, row := range rows {
		b.row(row, false)
	}

	b.buf.WriteString("</w:tbl>")
}

func (b *docxBody) row(cells []string, header bool) {
	b.buf.WriteString("<w:tr>")
	for _, cell := range cells {
		b.buf.WriteString("<w:tc>")
		if header {
			fmt.Fprintf(&b.buf, `<w:tcPr><w:shd w:val="clear" w:color="auto" w:fill="%s"/></w:tcPr>`, brandColor)
		}
		r := runStyle{size: 10}
		if header {
			r = runStyle{bold: true, size: 10, color: "FFFFFF"}
		}
		b.paragraph(cell, paraStyle{before: 2, after: 2}, r)
		b.buf.WriteString("</w:tc>")
	}
	b.buf.WriteString("</w:tr>")
}

func (b *docxBody) pack() ([]byte, error) {
	var out bytes.Buffer
	w := zip.NewWriter(&out)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentHeader + b.buf.String() + sectionXML + documentFooter},
	}

	for _, part := range parts {
		f, err := w.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := f.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish docx: %w", err)
	}

	return out.Bytes(), nil
}

func (b *docxBody) section(title string) {
	b.paragraph(strings.ToUpper(title), paraStyle{before: 8}, runStyle{bold: true, size: 11, color: brandColor})
	b.paragraph("", paraStyle{after: 2, rule: true}, runStyle{})
}

func (b *docxBody) bullet(text string) {
	b.paragraph("• "+text, paraStyle{after: 1, indent: 12}, runStyle{size: 10})
}

func (b *docxBody) normal(text string, r runStyle) {
	b.paragraph(text, paraStyle{after: 1}, r)
}

// BuildDOCX renders an ATS-friendly Word document.
func BuildDOCX(resume *ai.TailoredResume) ([]byte, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}

	var b docxBody

	b.paragraph(resume.Name, paraStyle{align: "center", after: 2}, runStyle{bold: true, size: 20})
	if contact := contactLine(resume); contact != "" {
		b.paragraph(contact, paraStyle{align: "center", after: 8}, runStyle{size: 9, color: grayColor})
	}

	if summary := strings.TrimSpace(resume.Summary); summary != "" {
		b.section("Professional Summary")
		b.normal(summary, runStyle{size: 10})
	}

	if len(resume.Experience) > 0 {
		b.section("Experience")
		for _, job := range resume.Experience {
			b.paragraph(job.Title, paraStyle{before: 6, after: 1}, runStyle{bold: true, size: 11})
			if meta := metaLine(job.Company, job.Location, job.Dates); meta != "" {
				b.normal(meta, runStyle{italic: true, size: 10, color: grayColor})
			}
			for _, bullet := range job.Bullets {
				b.bullet(bullet)
			}
		}
	}

	if len(resume.Education) > 0 {
		b.section("Education")
		for _, edu := range resume.Education {
			b.paragraph(edu.Degree, paraStyle{before: 6, after: 1}, runStyle{bold: true, size: 11})
			if meta := metaLine(edu.School, edu.Location, edu.Dates); meta != "" {
				b.normal(meta, runStyle{italic: true, size: 10, color: grayColor})
			}
			if details := strings.TrimSpace(edu.Details); details != "" {
				b.normal(details, runStyle{size: 10})
			}
		}
	}

	if len(resume.Skills) > 0 {
		b.section("Skills")
		for _, row := range skillRows(resume.Skills) {
			b.normal(row, runStyle{size: 10})
		}
	}

	if len(resume.Certifications) > 0 {
		b.section("Certifications")
		for _, cert := range resume.Certifications {
			b.bullet(cert)
		}
	}

	return b.pack()
}

func contactLine(resume *ai.TailoredResume) string {
	return joinNonEmpty("  |  ", resume.Phone, resume.Email, resume.Location, resume.LinkedIn, resume.Website)
}

func metaLine(place, location, dates string) string {
	meta := strings.TrimSpace(place)
	if location = strings.TrimSpace(location); location != "" {
		meta += "  —  " + location
	}
	if dates = strings.TrimSpace(dates); dates != "" {
		meta += "   " + dates
	}
	return strings.TrimSpace(meta)
}

const skillsPerRow = 4

func skillRows(skills []string) []string {
	var rows []string
	for i := 0; i < len(skills); i += skillsPerRow {
		end := min(i+skillsPerRow, len(skills))
		rows = append(rows, joinNonEmpty("  •  ", skills[i:end]...))
	}
	return rows
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}
