package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"smartattendance_backend/internals/features/attendance/records/dto"
)

const exportDateTimeFormat = "2006-01-02 15:04"

// ReportExportPayload is a rendered report ready to stream to the client.
type ReportExportPayload struct {
	Content   []byte
	FileName  string
	MediaType string
}

func ExportOrganisationReport(report dto.OrganisationReport, format string) (*ReportExportPayload, error) {
	var content []byte
	var err error
	switch format {
	case "pdf":
		content, err = buildOrganisationPdf(report)
	default:
		format = "csv"
		content = buildOrganisationCsv(report)
	}
	if err != nil {
		return nil, err
	}
	return &ReportExportPayload{
		Content: content,
		FileName: fmt.Sprintf("organisation-attendance-report-%s-%s.%s",
			report.Filters.StartDate, report.Filters.EndDate, format),
		MediaType: mediaType(format),
	}, nil
}

func ExportUserReport(report dto.AttendanceReport, userName, userEmail, period, format string) (*ReportExportPayload, error) {
	var content []byte
	var err error
	switch format {
	case "pdf":
		content, err = buildUserPdf(report, userName, userEmail, period)
	default:
		format = "csv"
		content = buildUserCsv(report, userName, userEmail, period)
	}
	if err != nil {
		return nil, err
	}
	return &ReportExportPayload{
		Content:   content,
		FileName:  fmt.Sprintf("attendance-report-%s.%s", period, format),
		MediaType: mediaType(format),
	}, nil
}

func buildOrganisationCsv(report dto.OrganisationReport) []byte {
	var b strings.Builder
	b.WriteString("Organisation Attendance Report\n")
	fmt.Fprintf(&b, "Organisation ID,%d\n", report.Filters.OrganisationID)
	fmt.Fprintf(&b, "Date Range,%s - %s\n", report.Filters.StartDate, report.Filters.EndDate)
	if report.Filters.UserID != nil {
		fmt.Fprintf(&b, "User Filter,%d\n", *report.Filters.UserID)
	}
	fmt.Fprintf(&b, "Report Type,%s\n\n", report.Filters.ReportType)

	b.WriteString("Summary Metrics\nMetric,Value\n")
	fmt.Fprintf(&b, "Total Records,%d\n", report.Summary.TotalRecords)
	fmt.Fprintf(&b, "Complete Sessions,%d\n", report.Summary.CompleteSessions)
	fmt.Fprintf(&b, "Active Sessions,%d\n", report.Summary.ActiveSessions)
	fmt.Fprintf(&b, "Unique Users,%d\n", report.Summary.UniqueUsers)
	fmt.Fprintf(&b, "Late Arrivals,%d\n", report.Summary.LateArrivals)
	fmt.Fprintf(&b, "Total Hours,%g\n", report.Summary.TotalHours)
	fmt.Fprintf(&b, "Average Hours,%g\n", report.Summary.AverageHours)
	fmt.Fprintf(&b, "Completion Rate (%%),%g\n\n", report.Summary.CompletionRate)

	b.WriteString("Detailed Records\n")
	b.WriteString("Name,Email,Date,Check-in,Check-out,Status,Check-in Method,Check-out Method\n")
	for _, rec := range report.Records {
		writeRecordCsvRow(&b, rec, true)
	}
	return []byte(b.String())
}

func buildUserCsv(report dto.AttendanceReport, userName, userEmail, period string) []byte {
	var b strings.Builder
	b.WriteString("Attendance Report\n")
	fmt.Fprintf(&b, "User,%s\n", csvValue(userName))
	fmt.Fprintf(&b, "Email,%s\n", csvValue(userEmail))
	fmt.Fprintf(&b, "Period,%s\n\n", period)

	b.WriteString("Summary\nMetric,Value\n")
	fmt.Fprintf(&b, "Total Days,%d\n", report.TotalDays)
	fmt.Fprintf(&b, "Present Days,%d\n", report.PresentDays)
	fmt.Fprintf(&b, "Late Arrivals,%d\n", report.LateArrivals)
	fmt.Fprintf(&b, "Average Hours,%g\n\n", report.AverageHours)

	b.WriteString("Detailed Records\n")
	b.WriteString("Date,Check-in,Check-out,Status,Check-in Method,Check-out Method\n")
	for _, rec := range report.Records {
		writeRecordCsvRow(&b, rec, false)
	}
	if len(report.Records) == 0 {
		b.WriteString("No attendance activity for the selected period\n")
	}
	return []byte(b.String())
}

func writeRecordCsvRow(b *strings.Builder, rec dto.AttendanceRecordResponse, withUser bool) {
	cols := make([]string, 0, 8)
	if withUser {
		cols = append(cols, csvValue(rec.UserName), csvValue(rec.UserEmail))
	}
	cols = append(cols,
		csvValue(time.Time(rec.AttendanceDate).Format("2006-01-02")),
		csvValue(rec.CheckInTime.Format(exportDateTimeFormat)),
		csvValue(formatOptionalTime(rec.CheckOutTime)),
		statusOf(rec),
		csvValue(rec.CheckInMethod),
		csvValue(optionalString(rec.CheckOutMethod)),
	)
	b.WriteString(strings.Join(cols, ","))
	b.WriteString("\n")
}

func buildOrganisationPdf(report dto.OrganisationReport) ([]byte, error) {
	lines := []pdfLine{
		{text: "Organisation Attendance Report", heading: true},
		{text: fmt.Sprintf("Organisation ID: %d", report.Filters.OrganisationID)},
		{text: fmt.Sprintf("Date Range: %s - %s", report.Filters.StartDate, report.Filters.EndDate)},
	}
	if report.Filters.UserID != nil {
		lines = append(lines, pdfLine{text: fmt.Sprintf("User Filter: %d", *report.Filters.UserID)})
	}
	lines = append(lines,
		pdfLine{text: "Report Type: " + report.Filters.ReportType},
		pdfLine{},
		pdfLine{text: "Summary", heading: true},
		pdfLine{text: fmt.Sprintf("Total Records: %d", report.Summary.TotalRecords)},
		pdfLine{text: fmt.Sprintf("Complete Sessions: %d", report.Summary.CompleteSessions)},
		pdfLine{text: fmt.Sprintf("Active Sessions: %d", report.Summary.ActiveSessions)},
		pdfLine{text: fmt.Sprintf("Unique Users: %d", report.Summary.UniqueUsers)},
		pdfLine{text: fmt.Sprintf("Late Arrivals: %d", report.Summary.LateArrivals)},
		pdfLine{text: fmt.Sprintf("Total Hours: %g", report.Summary.TotalHours)},
		pdfLine{text: fmt.Sprintf("Average Hours: %g", report.Summary.AverageHours)},
		pdfLine{text: fmt.Sprintf("Completion Rate: %g%%", report.Summary.CompletionRate)},
		pdfLine{},
		pdfLine{text: "Detailed Records", heading: true},
	)
	if len(report.Records) == 0 {
		lines = append(lines, pdfLine{text: "No attendance records for the selected filters."})
	}
	for _, rec := range report.Records {
		lines = append(lines, pdfLine{text: formatPdfRecordLine(rec, true)})
	}
	return buildPdfDocument(lines)
}

func buildUserPdf(report dto.AttendanceReport, userName, userEmail, period string) ([]byte, error) {
	lines := []pdfLine{
		{text: "Attendance Report", heading: true},
		{text: "User: " + userName},
		{text: "Email: " + userEmail},
		{text: "Period: " + period},
		{},
		{text: "Summary", heading: true},
		{text: fmt.Sprintf("Total Days: %d", report.TotalDays)},
		{text: fmt.Sprintf("Present Days: %d", report.PresentDays)},
		{text: fmt.Sprintf("Late Arrivals: %d", report.LateArrivals)},
		{text: fmt.Sprintf("Average Hours/Day: %g", report.AverageHours)},
		{},
		{text: "Detailed Records", heading: true},
	}
	if len(report.Records) == 0 {
		lines = append(lines, pdfLine{text: "No attendance activity for the selected period."})
	}
	for _, rec := range report.Records {
		lines = append(lines, pdfLine{text: formatPdfRecordLine(rec, false)})
	}
	return buildPdfDocument(lines)
}

type pdfLine struct {
	text    string
	heading bool
}

func buildPdfDocument(lines []pdfLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	for _, line := range lines {
		if line.text == "" {
			pdf.Ln(4)
			continue
		}
		if line.heading {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 8, line.text, "", 1, "L", false, 0, "")
		} else {
			pdf.SetFont("Helvetica", "", 11)
			pdf.CellFormat(0, 6, line.text, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatPdfRecordLine(rec dto.AttendanceRecordResponse, withUser bool) string {
	date := time.Time(rec.AttendanceDate).Format("2006-01-02")
	base := fmt.Sprintf("%s | In: %s | Out: %s | %s",
		date,
		rec.CheckInTime.Format(exportDateTimeFormat),
		formatOptionalTime(rec.CheckOutTime),
		statusOf(rec),
	)
	if withUser {
		return fmt.Sprintf("%s | %s | %s", safe(rec.UserName), safe(rec.UserEmail), base)
	}
	return base
}

func statusOf(rec dto.AttendanceRecordResponse) string {
	if rec.CheckOutTime != nil {
		return "Complete"
	}
	return "Active"
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(exportDateTimeFormat)
}

func optionalString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func safe(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func csvValue(value string) string {
	sanitized := strings.NewReplacer("\n", " ", "\r", " ").Replace(value)
	if strings.ContainsAny(sanitized, ",\"") {
		return "\"" + strings.ReplaceAll(sanitized, "\"", "\"\"") + "\""
	}
	return sanitized
}

func mediaType(format string) string {
	if format == "pdf" {
		return "application/pdf"
	}
	return "text/csv"
}
