package dto

// DailyAttendance is total closed-session hours for one calendar day.
type DailyAttendance struct {
	Date  string  `json:"date"` // ISO date
	Hours float64 `json:"hours"`
}

type MethodCount struct {
	Method string `json:"method"`
	Count  int    `json:"count"`
}

type ReportSummary struct {
	TotalRecords     int     `json:"total_records"`
	CompleteSessions int     `json:"complete_sessions"`
	ActiveSessions   int     `json:"active_sessions"`
	UniqueUsers      int     `json:"unique_users"`
	LateArrivals     int     `json:"late_arrivals"`
	TotalHours       float64 `json:"total_hours"`
	AverageHours     float64 `json:"average_hours"`
	CompletionRate   float64 `json:"completion_rate"`
}

type ReportFilters struct {
	OrganisationID uint64  `json:"organisation_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	UserID         *uint64 `json:"user_id,omitempty"`
	ReportType     string  `json:"report_type"` // all | complete | active
}

type OrganisationReport struct {
	Filters ReportFilters              `json:"filters"`
	Summary ReportSummary              `json:"summary"`
	Daily   []DailyAttendance          `json:"daily"`
	Methods []MethodCount              `json:"methods"`
	Records []AttendanceRecordResponse `json:"records"`
}

// AttendanceReport is the per-user period report.
type AttendanceReport struct {
	Daily        []DailyAttendance          `json:"daily"`
	Methods      []MethodCount              `json:"methods"`
	TotalDays    int                        `json:"total_days"`
	PresentDays  int                        `json:"present_days"`
	LateArrivals int                        `json:"late_arrivals"`
	AverageHours float64                    `json:"average_hours"`
	Records      []AttendanceRecordResponse `json:"records"`
}
