package domain

import "time"

type NotificationType string

const (
	NotificationRequestSubmitted  NotificationType = "REQUEST_SUBMITTED"
	NotificationRequestAccepted   NotificationType = "REQUEST_ACCEPTED"
	NotificationRequestRejected   NotificationType = "REQUEST_REJECTED"
	NotificationRequestCancelled  NotificationType = "REQUEST_CANCELLED"
	NotificationRequestCompleted  NotificationType = "REQUEST_COMPLETED"
	NotificationRequestExpired    NotificationType = "REQUEST_EXPIRED"
	NotificationReturnOverdue     NotificationType = "RETURN_OVERDUE"
	NotificationReportSubmitted   NotificationType = "REPORT_SUBMITTED"
	NotificationReportResolved    NotificationType = "REPORT_RESOLVED"
	NotificationAccountBanned     NotificationType = "ACCOUNT_BANNED"
	NotificationAccountReinstated NotificationType = "ACCOUNT_REINSTATED"
	NotificationReviewReceived    NotificationType = "REVIEW_RECEIVED"
)

// Notification is immutable apart from IsRead, which only the recipient sets.
type Notification struct {
	ID                int32            `json:"id"`
	UserID            int32            `json:"user_id"`
	Type              NotificationType `json:"type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	RelatedRequestID  *int32           `json:"related_request_id,omitempty"`
	RelatedReportID   *int32           `json:"related_report_id,omitempty"`
	RelatedResourceID *int32           `json:"related_resource_id,omitempty"`
	IsRead            bool             `json:"is_read"`
	CreatedAt         time.Time        `json:"created_at"`
}
