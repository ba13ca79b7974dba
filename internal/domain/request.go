package domain

import "time"

// DateLayout is the wire and storage format of pickup/return dates.
const DateLayout = "2006-01-02"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "Pending"
	RequestStatusAccepted  RequestStatus = "Accepted"
	RequestStatusRejected  RequestStatus = "Rejected"
	RequestStatusCancelled RequestStatus = "Cancelled"
	RequestStatusCompleted RequestStatus = "Completed"
)

// ActiveRequestStatuses are the non-terminal statuses.
var ActiveRequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusAccepted}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected, RequestStatusCancelled, RequestStatusCompleted:
		return true
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusCancelled || s == RequestStatusCompleted
}

type PickupMethod string

const (
	PickupMethodPickup   PickupMethod = "pickup"
	PickupMethodDelivery PickupMethod = "delivery"
	PickupMethodMeetup   PickupMethod = "meetup"
)

func (m PickupMethod) Valid() bool {
	switch m {
	case PickupMethodPickup, PickupMethodDelivery, PickupMethodMeetup:
		return true
	}
	return false
}

type Request struct {
	ID             int32         `json:"id"`
	ResourceID     int32         `json:"resource_id"`
	ResourceName   string        `json:"resource_name,omitempty"` // Joined from resources
	RequesterID    int32         `json:"requester_id"`
	OwnerID        int32         `json:"owner_id"`
	PickupDate     string        `json:"pickup_date"`
	ReturnDate     string        `json:"return_date"`
	PickupMethod   PickupMethod  `json:"pickup_method"`
	MessageToOwner string        `json:"message_to_owner"`
	BorrowLocation string        `json:"borrow_location"`
	Status         RequestStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SubmitInput carries the borrower-supplied fields of a new request.
type SubmitInput struct {
	ResourceID     int32
	PickupDate     string
	ReturnDate     string
	PickupMethod   PickupMethod
	MessageToOwner string
	BorrowLocation string
}

type RequestFilter struct {
	RequesterID int32
	OwnerID     int32
	ResourceID  int32
	Statuses    []RequestStatus
	Page        int32
	PageSize    int32
}
