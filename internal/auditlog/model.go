package auditlog

import (
	"time"
)

// AuditLog represents the audit_logs table
type AuditLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"`     // nullable (e.g. failed login)
	ActivityID *uint     `gorm:"index" json:"activity_id"` // nullable (auth/profile actions)
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Details    string    `gorm:"type:jsonb" json:"details"` // freeform JSON details
	IPAddress  string    `gorm:"size:45" json:"ip_address"`
	Status     string    `gorm:"size:20;not null;index" json:"status"` // success/failure
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Well-known audit actions. Keeping them here avoids typos across services.
const (
	ActionRegister          = "REGISTER"
	ActionVerifyEmail       = "VERIFY_EMAIL"
	ActionLogin             = "LOGIN"
	ActionPasswordReset     = "PASSWORD_RESET"
	ActionProfileUpdate     = "PROFILE_UPDATE"
	ActionActivityCreate    = "ACTIVITY_CREATE"
	ActionActivityComplete  = "ACTIVITY_COMPLETE"
	ActionJoinRequest       = "JOIN_REQUEST"
	ActionRequestApprove    = "REQUEST_APPROVE"
	ActionRequestReject     = "REQUEST_REJECT"
	ActionRequestWithdraw   = "REQUEST_WITHDRAW"
	ActionRequestRevoke     = "REQUEST_REVOKE"
	ActionAttendanceMark    = "ATTENDANCE_MARK"
	ActionUserRate          = "USER_RATE"
	ActionChatCreate        = "CHAT_CREATE"
	ActionReportExport      = "REPORT_EXPORT"
)

// AuditLogResponse represents the audit log response for API
type AuditLogResponse struct {
	ID         uint      `json:"id"`
	UserID     *uint     `json:"user_id"`
	ActivityID *uint     `json:"activity_id"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ip_address"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	// Joined for display
	UserName      *string `json:"user_name,omitempty"`
	ActivityTitle *string `json:"activity_title,omitempty"`
}

// AuditLogFilter represents filters for querying audit logs
type AuditLogFilter struct {
	UserID     *uint      `json:"user_id"`
	ActivityID *uint      `json:"activity_id"`
	Action     string     `json:"action"`
	Status     string     `json:"status"`
	FromDate   *time.Time `json:"from_date"`
	ToDate     *time.Time `json:"to_date"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

// PaginatedAuditLogs represents paginated audit log response
type PaginatedAuditLogs struct {
	Data       []AuditLogResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
