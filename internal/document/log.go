package document

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/spigell/job-bot/internal/store"
)

var (
	logColumns = []string{"Date", "Job Title", "Company", "Location", "Work Type", "Fit %", "Status"}
	logKeys    = []string{"date", "job_title", "company", "location", "work_type", "fit_pct", "status"}
)

func logRow(entry store.LogEntry) []string {
	return []string{
		entry.Date,
		entry.JobTitle,
		entry.Company,
		entry.Location,
		entry.WorkType,
		strconv.Itoa(entry.FitPct),
		entry.Status,
	}
}

// BuildLogDOCX renders the application log as a Word table.
func BuildLogDOCX(entries []store.LogEntry) ([]byte, error) {
	var b docxBody

	b.paragraph("Job Application Log", paraStyle{align: "center"}, runStyle{bold: true, size: 16, color: brandColor})
	b.paragraph("", paraStyle{}, runStyle{})

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, logRow(entry))
	}
	b.table(logColumns, rows)

	// Word requires a paragraph between a table and the section properties.
	b.paragraph("", paraStyle{}, runStyle{})

	return b.pack()
}

// BuildLogCSV renders the application log with snake_case column keys.
func BuildLogCSV(entries []store.LogEntry) ([]byte, error) {
	var out bytes.Buffer
	w := csv.NewWriter(&out)

	if err := w.Write(logKeys); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, entry := range entries {
		if err := w.Write(logRow(entry)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return out.Bytes(), nil
}
