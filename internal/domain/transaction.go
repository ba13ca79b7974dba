package domain

import "time"

type TransactionStatus string

const (
	TransactionStatusActive    TransactionStatus = "Active"
	TransactionStatusCompleted TransactionStatus = "Completed"
	TransactionStatusCanceled  TransactionStatus = "Canceled"
)

// Transaction records an agreed loan. It is created once, when its request is
// accepted, and afterwards mirrors the request's terminal transition.
type Transaction struct {
	ID               int32             `json:"id"`
	RequestID        int32             `json:"request_id"`
	BorrowerID       int32             `json:"borrower_id"`
	LenderID         int32             `json:"lender_id"`
	ResourceID       int32             `json:"resource_id"`
	BorrowDate       string            `json:"borrow_date"`
	ReturnDate       string            `json:"return_date"`
	Status           TransactionStatus `json:"status"`
	ActualReturnDate *time.Time        `json:"actual_return_date,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
