package app

import (
	"context"
	"fmt"
	"time"

	"lobby_lobster/internal/domain"
)

// AvailabilityService answers whether a room is free for a half-open date
// range. It does not check that the room exists.
type AvailabilityService struct {
	store domain.ReservationStore
}

func NewAvailabilityService(s domain.ReservationStore) *AvailabilityService {
	return &AvailabilityService{store: s}
}

// IsAvailable reports whether no occupying reservation on roomID overlaps
// [checkIn, checkOut). excludeID, when set, is ignored so an update does not
// conflict with its own stored record.
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	return isAvailable(ctx, s.store, roomID, checkIn, checkOut, excludeID)
}

func isAvailable(ctx context.Context, store domain.ReservationStore, roomID string, checkIn, checkOut time.Time, excludeID string) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, fmt.Errorf("%w: check-out date must be after check-in date", domain.ErrValidation)
	}
	existing, err := store.FindReservations(ctx, domain.ReservationFilter{
		RoomID:      roomID,
		Statuses:    domain.OccupyingStatuses,
		ExcludeID:   excludeID,
		Overlapping: &domain.DateRange{From: checkIn, To: checkOut},
	})
	if err != nil {
		return false, err
	}
	for _, r := range existing {
		if r.ID == excludeID || !r.Status.Occupying() {
			continue
		}
		if domain.Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut) {
			return false, nil
		}
	}
	return true, nil
}
