package domain

import "time"

type ReportStatus string

const (
	ReportStatusPending     ReportStatus = "Pending"
	ReportStatusReviewed    ReportStatus = "Reviewed"
	ReportStatusDismissed   ReportStatus = "Dismissed"
	ReportStatusActionTaken ReportStatus = "Action Taken"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusDismissed, ReportStatusActionTaken:
		return true
	}
	return false
}

// Report is an abuse report filed by a lender against the borrower of a
// completed request.
type Report struct {
	ID             int32        `json:"id"`
	RequestID      int32        `json:"request_id"`
	ReporterID     int32        `json:"reporter_id"`
	ReportedUserID int32        `json:"reported_user_id"`
	Reason         string       `json:"reason"`
	Description    string       `json:"description"`
	Status         ReportStatus `json:"status"`
	AdminNotes     string       `json:"admin_notes"`
	ResolvedBy     *int32       `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
