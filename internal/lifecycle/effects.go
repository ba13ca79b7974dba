package lifecycle

import (
	"time"

	"sharenet-backend/internal/domain"
)

// Effect is a write the transactional shell must apply, in order, inside the
// same unit of work that persists the new request status.
type Effect interface {
	effect()
}

// HoldResource marks the resource as held by an active request.
type HoldResource struct {
	ResourceID int32
}

// ReleaseResource recomputes the resource's availability from its remaining
// active requests.
type ReleaseResource struct {
	ResourceID int32
}

// OpenTransaction creates the loan record for an accepted request.
type OpenTransaction struct {
	Transaction domain.Transaction
}

// CloseTransaction moves the request's loan record to a terminal status.
// When Required is set a missing record is a consistency violation.
type CloseTransaction struct {
	RequestID  int32
	Status     domain.TransactionStatus
	ReturnedAt *time.Time
	Required   bool
}

// RejectSiblings supersedes every other pending request for the resource.
type RejectSiblings struct {
	ResourceID    int32
	KeepRequestID int32
}

// Notify emits one notification. Notifications without a related request are
// bound to the outcome's request once it has an id.
type Notify struct {
	Notification domain.Notification
}

func (HoldResource) effect()     {}
func (ReleaseResource) effect()  {}
func (OpenTransaction) effect()  {}
func (CloseTransaction) effect() {}
func (RejectSiblings) effect()   {}
func (Notify) effect()           {}

// Outcome is the result of a transition decision: the request as it must be
// persisted and the side effects that go with it.
type Outcome struct {
	Request domain.Request
	Effects []Effect
}
