package service

import (
	"math"
	"sort"
	"time"

	"smartattendance_backend/internals/features/attendance/records/dto"
	"smartattendance_backend/internals/features/attendance/records/model"
)

// Report aggregation over already-fetched records. Pure and deterministic:
// the same input set always produces the same report.

// BuildOrganisationReport assembles the full organisation report for records
// the caller has already filtered to organisation/date-range/member.
func BuildOrganisationReport(records []model.AttendanceRecordModel, filters dto.ReportFilters, lateThreshold string) dto.OrganisationReport {
	filtered := applyReportTypeFilter(records, filters.ReportType)
	return dto.OrganisationReport{
		Filters: filters,
		Summary: BuildSummary(filtered, lateThreshold),
		Daily:   BuildDaily(filtered),
		Methods: BuildMethodCounts(filtered),
		Records: dto.ToAttendanceResponseList(filtered),
	}
}

// BuildUserReport assembles the per-user period report.
func BuildUserReport(records []model.AttendanceRecordModel, totalDays int, lateThreshold string) dto.AttendanceReport {
	daily := BuildDaily(records)

	var total float64
	for _, d := range daily {
		total += d.Hours
	}
	avg := 0.0
	if len(daily) > 0 {
		avg = total / float64(len(daily))
	}

	return dto.AttendanceReport{
		Daily:        daily,
		Methods:      BuildMethodCounts(records),
		TotalDays:    totalDays,
		PresentDays:  len(daily),
		LateArrivals: countLate(records, lateThreshold),
		AverageHours: roundTo(avg, 2),
		Records:      dto.ToAttendanceResponseList(records),
	}
}

// BuildDaily groups closed-session hours by attendance date, sorted by date.
func BuildDaily(records []model.AttendanceRecordModel) []dto.DailyAttendance {
	totals := make(map[string]float64)
	for i := range records {
		r := &records[i]
		date := time.Time(r.AttendanceDate).Format("2006-01-02")
		totals[date] += r.DurationHours()
	}

	out := make([]dto.DailyAttendance, 0, len(totals))
	for date, hours := range totals {
		out = append(out, dto.DailyAttendance{Date: date, Hours: roundTo(hours, 1)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BuildMethodCounts counts check-ins per method, sorted by method name for
// stable output.
func BuildMethodCounts(records []model.AttendanceRecordModel) []dto.MethodCount {
	counts := make(map[string]int)
	for i := range records {
		if records[i].CheckInMethod != "" {
			counts[records[i].CheckInMethod]++
		}
	}

	out := make([]dto.MethodCount, 0, len(counts))
	for method, count := range counts {
		out = append(out, dto.MethodCount{Method: method, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

func BuildSummary(records []model.AttendanceRecordModel, lateThreshold string) dto.ReportSummary {
	total := len(records)
	complete := 0
	users := make(map[uint64]struct{})
	var totalHours float64

	for i := range records {
		r := &records[i]
		users[r.UserID] = struct{}{}
		if r.CheckOutTime != nil {
			complete++
			totalHours += r.DurationHours()
		}
	}

	avg := 0.0
	if complete > 0 {
		avg = totalHours / float64(complete)
	}
	rate := 0.0
	if total > 0 {
		rate = float64(complete) / float64(total) * 100.0
	}

	return dto.ReportSummary{
		TotalRecords:     total,
		CompleteSessions: complete,
		ActiveSessions:   total - complete,
		UniqueUsers:      len(users),
		LateArrivals:     countLate(records, lateThreshold),
		TotalHours:       roundTo(totalHours, 1),
		AverageHours:     roundTo(avg, 2),
		CompletionRate:   roundTo(rate, 1),
	}
}

// PeriodRange resolves a named period (week|month|quarter|year) to an
// inclusive date range ending today.
func PeriodRange(period string, today time.Time) (time.Time, time.Time) {
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	var start time.Time
	switch period {
	case "month":
		start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
	case "quarter":
		start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location()).AddDate(0, -2, 0)
	case "year":
		start = time.Date(end.Year(), 1, 1, 0, 0, 0, 0, end.Location())
	default: // week
		start = end.AddDate(0, 0, -6)
	}
	return start, end.Add(24*time.Hour - time.Nanosecond)
}

// NormalizeReportType folds unknown types to "all".
func NormalizeReportType(reportType string) string {
	switch reportType {
	case "complete", "active":
		return reportType
	default:
		return "all"
	}
}

func applyReportTypeFilter(records []model.AttendanceRecordModel, reportType string) []model.AttendanceRecordModel {
	switch NormalizeReportType(reportType) {
	case "complete":
		out := make([]model.AttendanceRecordModel, 0, len(records))
		for i := range records {
			if records[i].CheckOutTime != nil {
				out = append(out, records[i])
			}
		}
		return out
	case "active":
		out := make([]model.AttendanceRecordModel, 0, len(records))
		for i := range records {
			if records[i].CheckOutTime == nil {
				out = append(out, records[i])
			}
		}
		return out
	default:
		return records
	}
}

func countLate(records []model.AttendanceRecordModel, lateThreshold string) int {
	threshold, err := time.Parse("15:04", lateThreshold)
	if err != nil {
		threshold, _ = time.Parse("15:04", "08:00")
	}
	thresholdSeconds := threshold.Hour()*3600 + threshold.Minute()*60

	late := 0
	for i := range records {
		t := records[i].CheckInTime
		if t.Hour()*3600+t.Minute()*60+t.Second() > thresholdSeconds {
			late++
		}
	}
	return late
}

func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}
