package domain

import "time"

type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "Available"
	AvailabilityReserved  AvailabilityStatus = "Reserved"
	AvailabilityBorrowed  AvailabilityStatus = "Borrowed"
	AvailabilityDonated   AvailabilityStatus = "Donated"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case AvailabilityAvailable, AvailabilityReserved, AvailabilityBorrowed, AvailabilityDonated:
		return true
	}
	return false
}

// Held reports whether an active request currently holds the resource.
func (s AvailabilityStatus) Held() bool {
	return s == AvailabilityReserved || s == AvailabilityBorrowed
}

type Resource struct {
	ID                 int32              `json:"id"`
	OwnerID            int32              `json:"owner_id"`
	Owner              *User              `json:"owner,omitempty"` // Populated when fetching resource details
	Name               string             `json:"name"`
	Description        string             `json:"description"`
	Category           string             `json:"category"`
	Location           string             `json:"location"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	DeletedAt          *time.Time         `json:"deleted_at,omitempty"`
}

type ResourceFilter struct {
	Category     string
	Location     string
	Availability AvailabilityStatus
	OwnerID      int32
	Query        string
	Page         int32
	PageSize     int32
}
