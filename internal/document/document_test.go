package document

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/resumeparse"
	"github.com/spigell/job-bot/internal/store"
)

func sampleResume() *ai.TailoredResume {
	return &ai.TailoredResume{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "555-0100",
		Location: "Austin, TX",
		Summary:  "Backend engineer focused on payments & reliability.",
		Experience: []ai.Experience{{
			Title:    "Senior Go Engineer",
			Company:  "Acme Corp",
			Location: "Remote",
			Dates:    "2021 - Present",
			Bullets:  []string{"Cut p99 latency by 40%", "Led <migration> to Kubernetes"},
		}},
		Education: []ai.Education{{Degree: "BSc Computer Science", School: "UT Austin", Dates: "2015"}},
		Skills:    []string{"Go", "gRPC", "PostgreSQL", "Kafka", "Terraform"},
		Certifications: []string{
			"CKA",
		},
	}
}

func readZipEntry(t *testing.T, data []byte, name string) string {
	t.Helper()

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(body)
	}

	t.Fatalf("zip entry %s not found", name)
	return ""
}

func TestBuildDOCX(t *testing.T) {
	data, err := BuildDOCX(sampleResume())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, part := range []string{"[Content_Types].xml", "_rels/.rels"} {
		readZipEntry(t, data, part)
	}

	doc := readZipEntry(t, data, "word/document.xml")
	for _, expect := range []string{"payments &amp; reliability", "Led &lt;migration&gt; to Kubernetes", "PROFESSIONAL SUMMARY", "w:pgMar"} {
		if !strings.Contains(doc, expect) {
			t.Fatalf("expected %q in document.xml", expect)
		}
	}

	text, err := resumeparse.Extract(data, "resume.docx")
	if err != nil {
		t.Fatalf("generated docx is not readable: %v", err)
	}
	for _, expect := range []string{
		"Jane Doe",
		"555-0100  |  jane@example.com  |  Austin, TX",
		"Acme Corp  —  Remote   2021 - Present",
		"Go  •  gRPC  •  PostgreSQL  •  Kafka",
		"• CKA",
	} {
		if !strings.Contains(text, expect) {
			t.Fatalf("expected %q in extracted text:\n%s", expect, text)
		}
	}
}

func TestBuildDOCXSkipsEmptySections(t *testing.T) {
	data, err := BuildDOCX(&ai.TailoredResume{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := readZipEntry(t, data, "word/document.xml")
	for _, section := range []string{"EXPERIENCE", "EDUCATION", "SKILLS", "CERTIFICATIONS"} {
		if strings.Contains(doc, section) {
			t.Fatalf("unexpected empty section %s", section)
		}
	}
}

func TestBuildPDF(t *testing.T) {
	data, err := BuildPDF(sampleResume())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected a PDF header, got %q", data[:min(8, len(data))])
	}
	if !bytes.Contains(data[len(data)-32:], []byte("%%EOF")) {
		t.Fatal("expected a PDF trailer")
	}
}

func TestBuildRejectsNilResume(t *testing.T) {
	if _, err := BuildDOCX(nil); err == nil {
		t.Fatal("expected error for nil resume")
	}
	if _, err := BuildPDF(nil); err == nil {
		t.Fatal("expected error for nil resume")
	}
}

func TestSkillRows(t *testing.T) {
	rows := skillRows([]string{"a", "b", " ", "c", "d", "e"})
	if len(rows) != 2 || rows[0] != "a  •  b  •  c" || rows[1] != "d  •  e" {
		t.Fatalf("unexpected rows %q", rows)
	}
}

var logEntries = []store.LogEntry{
	{ID: "1", Date: "2025-03-14", JobTitle: "Go Engineer", Company: "Acme, Inc.", WorkType: "Remote", FitPct: 82, Status: "Applied"},
	{ID: "2", Date: "2025-03-15", Company: "Initech", Location: "Austin", Status: "Rejected"},
}

func TestBuildLogCSV(t *testing.T) {
	data, err := BuildLogCSV(logEntries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and two rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "date,job_title,company,location,work_type,fit_pct,status" {
		t.Fatalf("unexpected header %q", records[0])
	}
	if records[1][2] != "Acme, Inc." || records[1][5] != "82" || records[2][1] != "" {
		t.Fatalf("unexpected rows %q", records[1:])
	}
}

func TestBuildLogDOCX(t *testing.T) {
	data, err := BuildLogDOCX(logEntries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := readZipEntry(t, data, "word/document.xml")
	if strings.Count(doc, "<w:tr>") != 3 {
		t.Fatalf("expected header and two rows in:\n%s", doc)
	}
	for _, expect := range []string{"Job Application Log", "Fit %", "Acme, Inc.", "Initech", `w:fill="4F46E5"`} {
		if !strings.Contains(doc, expect) {
			t.Fatalf("expected %q in document.xml", expect)
		}
	}
}

func TestBuildLogDOCXEmpty(t *testing.T) {
	data, err := BuildLogDOCX(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(readZipEntry(t, data, "word/document.xml"), "<w:tr>") != 1 {
		t.Fatal("expected only the header row")
	}
}
