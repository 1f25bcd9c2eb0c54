package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/findone/findone-backend/internal/auditlog"
)

type Service struct {
	Repo  Repository
	Audit auditlog.Service
}

func NewService(repo Repository, audit auditlog.Service) *Service {
	return &Service{Repo: repo, Audit: audit}
}

// BuildReport assembles the organizer's activity summary for a date range.
func (s *Service) BuildReport(ctx context.Context, creatorID uint, organizerEmail string, from, to time.Time) (*Report, error) {
	rows, err := s.Repo.ActivitySummaries(ctx, creatorID, from, to)
	if err != nil {
		return nil, err
	}
	return &Report{
		OrganizerEmail: organizerEmail,
		From:           from,
		To:             to,
		Rows:           rows,
	}, nil
}

// Export renders the report in the requested format and returns the bytes
// plus the MIME content type.
func (s *Service) Export(ctx context.Context, creatorID uint, report *Report, format, ip string) ([]byte, string, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)

	switch format {
	case FormatCSV:
		payload, err = exportCSV(report)
		contentType = "text/csv"
	case FormatXLSX:
		payload, err = exportXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		payload, err = exportPDF(report)
		contentType = "application/pdf"
	default:
		return nil, "", fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, "", err
	}

	if s.Audit != nil {
		details := map[string]interface{}{"format": format, "rows": len(report.Rows)}
		if auditErr := s.Audit.LogAction(ctx, &creatorID, nil, auditlog.ActionReportExport, details, ip, "success"); auditErr != nil {
			log.Printf("reports: audit: %v", auditErr)
		}
	}
	return payload, contentType, nil
}

var reportHeader = []string{
	"ID", "Title", "Category", "Subcategory", "Location", "Spots",
	"Participants", "Pending", "Attended", "On time", "Completed", "Created",
}

func rowValues(r ActivityReportRow) []string {
	return []string{
		strconv.FormatUint(uint64(r.ActivityID), 10),
		r.Title,
		r.Category,
		r.Subcategory,
		r.Location,
		strconv.Itoa(r.Spots),
		strconv.Itoa(r.Participants),
		strconv.Itoa(r.PendingRequests),
		strconv.Itoa(r.Attended),
		strconv.Itoa(r.OnTime),
		strconv.FormatBool(r.IsCompleted),
		r.CreatedAt.Format("2006-01-02"),
	}
}

func exportCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, r := range report.Rows {
		if err := w.Write(rowValues(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportXLSX(report *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Activities"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, r := range report.Rows {
		for col, value := range rowValues(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportPDF(report *Report) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Activity report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("%s  |  %s - %s",
		report.OrganizerEmail,
		report.From.Format("2006-01-02"),
		report.To.Format("2006-01-02")))
	pdf.Ln(12)

	widths := []float64{12, 60, 22, 30, 45, 14, 22, 18, 18, 18, 20, 22}
	pdf.SetFont("Arial", "B", 8)
	for i, title := range reportHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range report.Rows {
		for i, value := range rowValues(r) {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
