// Package lifecycle decides borrow-request transitions. It holds no state and
// performs no I/O: callers load the request under lock, ask Apply or Submit
// for an Outcome and persist the outcome's request and effects atomically.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"sharenet-backend/internal/domain"
)

type Action string

const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	// ActionSupersede rejects a pending sibling when another request for the
	// same resource is accepted.
	ActionSupersede Action = "supersede"
	// ActionExpire cancels a pending request whose pickup date has long passed.
	ActionExpire Action = "expire"
)

// Transition is a single allowed edge of the request state machine.
type Transition struct {
	Action Action
	From   domain.RequestStatus
	To     domain.RequestStatus
}

var transitionsTable = []Transition{
	{Action: ActionAccept, From: domain.RequestStatusPending, To: domain.RequestStatusAccepted},
	{Action: ActionReject, From: domain.RequestStatusPending, To: domain.RequestStatusRejected},
	{Action: ActionSupersede, From: domain.RequestStatusPending, To: domain.RequestStatusRejected},
	{Action: ActionCancel, From: domain.RequestStatusPending, To: domain.RequestStatusCancelled},
	{Action: ActionCancel, From: domain.RequestStatusAccepted, To: domain.RequestStatusCancelled},
	{Action: ActionComplete, From: domain.RequestStatusAccepted, To: domain.RequestStatusCompleted},
	{Action: ActionExpire, From: domain.RequestStatusPending, To: domain.RequestStatusCancelled},
}

// TransitionFor returns the allowed transition for a given status and action.
func TransitionFor(from domain.RequestStatus, action Action) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Action == action {
			return tr, true
		}
	}
	return Transition{}, false
}

type permission func(req *domain.Request, actor domain.Actor) bool

func ownerOrAdmin(req *domain.Request, actor domain.Actor) bool {
	return actor.IsAdmin() || actor.ID == req.OwnerID
}

func partyOrAdmin(req *domain.Request, actor domain.Actor) bool {
	return ownerOrAdmin(req, actor) || actor.ID == req.RequesterID
}

func systemOnly(_ *domain.Request, actor domain.Actor) bool {
	return actor.System
}

var permissions = map[Action]permission{
	ActionAccept:    ownerOrAdmin,
	ActionReject:    ownerOrAdmin,
	ActionSupersede: ownerOrAdmin,
	ActionCancel:    partyOrAdmin,
	ActionComplete:  ownerOrAdmin,
	ActionExpire:    systemOnly,
}

// ActionForStatus maps the target status of a status-change call to the
// action that produces it.
func ActionForStatus(status domain.RequestStatus) (Action, error) {
	switch status {
	case domain.RequestStatusAccepted:
		return ActionAccept, nil
	case domain.RequestStatusRejected:
		return ActionReject, nil
	case domain.RequestStatusCancelled:
		return ActionCancel, nil
	case domain.RequestStatusCompleted:
		return ActionComplete, nil
	}
	return "", fmt.Errorf("%w: status %q cannot be requested", domain.ErrInvalidInput, status)
}

// Apply decides the transition of req under action by actor. The actor is
// checked before the current status, so an outsider learns nothing about the
// request's state.
func Apply(req domain.Request, action Action, actor domain.Actor, now time.Time) (Outcome, error) {
	allowed, ok := permissions[action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}
	if !allowed(&req, actor) {
		return Outcome{}, fmt.Errorf("%w: not allowed to %s request %d", domain.ErrForbidden, action, req.ID)
	}

	tr, ok := TransitionFor(req.Status, action)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: cannot %s a request that is %s", domain.ErrInvalidState, action, req.Status)
	}

	next := req
	next.Status = tr.To
	next.UpdatedAt = now

	out := Outcome{Request: next}
	label := resourceLabel(&req)

	switch action {
	case ActionAccept:
		out.Effects = append(out.Effects,
			OpenTransaction{Transaction: domain.Transaction{
				RequestID:  req.ID,
				BorrowerID: req.RequesterID,
				LenderID:   req.OwnerID,
				ResourceID: req.ResourceID,
				BorrowDate: req.PickupDate,
				ReturnDate: req.ReturnDate,
				Status:     domain.TransactionStatusActive,
			}},
			RejectSiblings{ResourceID: req.ResourceID, KeepRequestID: req.ID},
			notify(&req, req.RequesterID, domain.NotificationRequestAccepted, "Request Accepted",
				fmt.Sprintf("Your request to borrow %s was accepted. Pickup on %s.", label, req.PickupDate)),
		)

	case ActionReject:
		out.Effects = append(out.Effects,
			ReleaseResource{ResourceID: req.ResourceID},
			notify(&req, req.RequesterID, domain.NotificationRequestRejected, "Request Rejected",
				fmt.Sprintf("Your request to borrow %s was rejected.", label)),
		)

	case ActionSupersede:
		out.Effects = append(out.Effects,
			notify(&req, req.RequesterID, domain.NotificationRequestRejected, "Request Rejected",
				fmt.Sprintf("Your request to borrow %s was rejected because another request was accepted.", label)),
		)

	case ActionCancel:
		out.Effects = append(out.Effects,
			ReleaseResource{ResourceID: req.ResourceID},
			CloseTransaction{RequestID: req.ID, Status: domain.TransactionStatusCanceled},
		)
		if actor.ID == req.RequesterID && !actor.System {
			out.Effects = append(out.Effects, notify(&req, req.OwnerID, domain.NotificationRequestCancelled, "Request Cancelled",
				fmt.Sprintf("The borrower cancelled their request for %s.", label)))
		} else {
			by := "the owner"
			if actor.ID != req.OwnerID {
				by = "an administrator"
			}
			out.Effects = append(out.Effects, notify(&req, req.RequesterID, domain.NotificationRequestCancelled, "Request Cancelled",
				fmt.Sprintf("Your request for %s was cancelled by %s.", label, by)))
		}

	case ActionComplete:
		returned := now
		out.Effects = append(out.Effects,
			ReleaseResource{ResourceID: req.ResourceID},
			CloseTransaction{RequestID: req.ID, Status: domain.TransactionStatusCompleted, ReturnedAt: &returned, Required: true},
			notify(&req, req.RequesterID, domain.NotificationRequestCompleted, "Loan Completed",
				fmt.Sprintf("Your loan of %s has been marked as returned. Thanks for sharing!", label)),
			notify(&req, req.OwnerID, domain.NotificationRequestCompleted, "Loan Completed",
				fmt.Sprintf("The loan of %s is complete and it is available again.", label)),
		)

	case ActionExpire:
		out.Effects = append(out.Effects,
			ReleaseResource{ResourceID: req.ResourceID},
			notify(&req, req.RequesterID, domain.NotificationRequestExpired, "Request Expired",
				fmt.Sprintf("Your request for %s expired because it was not answered before the pickup date.", label)),
			notify(&req, req.OwnerID, domain.NotificationRequestExpired, "Request Expired",
				fmt.Sprintf("A pending request for %s expired without an answer.", label)),
		)
	}

	return out, nil
}

// Submit decides whether actor may open a new request against resource.
// Self-borrow is checked first and fails regardless of the other fields.
func Submit(resource domain.Resource, actor domain.Actor, in domain.SubmitInput, now time.Time) (Outcome, error) {
	if resource.DeletedAt != nil {
		return Outcome{}, fmt.Errorf("%w: resource %d", domain.ErrNotFound, resource.ID)
	}
	if actor.ID == resource.OwnerID {
		return Outcome{}, fmt.Errorf("%w: cannot borrow your own resource", domain.ErrInvalidInput)
	}

	pickup, err := parseDate("pickupDate", in.PickupDate)
	if err != nil {
		return Outcome{}, err
	}
	ret, err := parseDate("returnDate", in.ReturnDate)
	if err != nil {
		return Outcome{}, err
	}
	if pickup.After(ret) {
		return Outcome{}, fmt.Errorf("%w: pickupDate must not be after returnDate", domain.ErrInvalidInput)
	}

	method := in.PickupMethod
	if method == "" {
		method = domain.PickupMethodPickup
	}
	if !method.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown pickup method %q", domain.ErrInvalidInput, in.PickupMethod)
	}

	if resource.AvailabilityStatus != domain.AvailabilityAvailable {
		return Outcome{}, fmt.Errorf("%w: resource is %s", domain.ErrConflict, resource.AvailabilityStatus)
	}

	req := domain.Request{
		ResourceID:     resource.ID,
		ResourceName:   resource.Name,
		RequesterID:    actor.ID,
		OwnerID:        resource.OwnerID,
		PickupDate:     pickup.Format(domain.DateLayout),
		ReturnDate:     ret.Format(domain.DateLayout),
		PickupMethod:   method,
		MessageToOwner: strings.TrimSpace(in.MessageToOwner),
		BorrowLocation: strings.TrimSpace(in.BorrowLocation),
		Status:         domain.RequestStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	n := domain.Notification{
		UserID:            resource.OwnerID,
		Type:              domain.NotificationRequestSubmitted,
		Title:             "New Borrow Request",
		Message:           fmt.Sprintf("Someone wants to borrow %s from %s to %s.", resource.Name, req.PickupDate, req.ReturnDate),
		RelatedResourceID: ptr(resource.ID),
	}

	return Outcome{
		Request: req,
		Effects: []Effect{
			HoldResource{ResourceID: resource.ID},
			Notify{Notification: n},
		},
	}, nil
}

func parseDate(field, value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrInvalidInput, field)
	}
	return t, nil
}

func notify(req *domain.Request, userID int32, typ domain.NotificationType, title, msg string) Notify {
	return Notify{Notification: domain.Notification{
		UserID:            userID,
		Type:              typ,
		Title:             title,
		Message:           msg,
		RelatedRequestID:  ptr(req.ID),
		RelatedResourceID: ptr(req.ResourceID),
	}}
}

func resourceLabel(req *domain.Request) string {
	if req.ResourceName != "" {
		return req.ResourceName
	}
	return fmt.Sprintf("resource #%d", req.ResourceID)
}

func ptr[T any](v T) *T { return &v }
