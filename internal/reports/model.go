package reports

import (
	"time"
)

// Date range presets accepted by the report endpoints.
const (
	DateRangeDaily   = "daily"
	DateRangeWeekly  = "weekly"
	DateRangeMonthly = "monthly"
	DateRangeYearly  = "yearly"
	DateRangeCustom  = "custom"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ActivityReportRow summarizes one of the organizer's activities.
type ActivityReportRow struct {
	ActivityID      uint      `json:"activity_id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory"`
	Location        string    `json:"location"`
	Spots           int       `json:"spots"`
	Participants    int       `json:"participants"`
	PendingRequests int       `json:"pending_requests"`
	Attended        int       `json:"attended"`
	OnTime          int       `json:"on_time"`
	IsCompleted     bool      `json:"is_completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// Report is the assembled export payload.
type Report struct {
	OrganizerEmail string              `json:"organizer_email"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	Rows           []ActivityReportRow `json:"rows"`
}
