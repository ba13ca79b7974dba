package lifecycle

import "sharenet-backend/internal/domain"

// DeriveAvailability computes what a resource's stored availability should be
// given the statuses of its non-terminal requests. Donated is sticky once no
// request holds the resource, and Borrowed is kept while an accepted request
// still holds it.
func DeriveAvailability(stored domain.AvailabilityStatus, active []domain.RequestStatus) domain.AvailabilityStatus {
	holding := false
	accepted := false
	for _, s := range active {
		if s.Terminal() {
			continue
		}
		holding = true
		if s == domain.RequestStatusAccepted {
			accepted = true
		}
	}

	if !holding {
		if stored == domain.AvailabilityDonated {
			return domain.AvailabilityDonated
		}
		return domain.AvailabilityAvailable
	}
	if stored == domain.AvailabilityBorrowed && accepted {
		return domain.AvailabilityBorrowed
	}
	return domain.AvailabilityReserved
}
