package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"lobby_lobster/internal/domain"
)

const defaultSearchLimit = 10

// GuestService derives guest profiles from reservation history and applies
// guest-level edits across all of a guest's reservations.
type GuestService struct {
	store domain.Store
	now   func() time.Time
}

func NewGuestService(s domain.Store) *GuestService {
	return &GuestService{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// ListGuests folds the full reservation history into profiles, most frequent
// guests first. Profiles are recomputed on every call.
func (s *GuestService) ListGuests(ctx context.Context) ([]domain.GuestProfile, error) {
	views, err := s.store.ListReservationViews(ctx, domain.OrderCheckInDesc)
	if err != nil {
		return nil, err
	}
	return AggregateGuests(views), nil
}

// AggregateGuests groups reservations by GuestKey. views are expected in
// check-in descending order; contact details come from the latest check-in.
func AggregateGuests(views []domain.ReservationView) []domain.GuestProfile {
	byKey := make(map[string]*domain.GuestProfile)
	var order []string

	for _, v := range views {
		key := v.GuestKey()
		g, ok := byKey[key]
		if !ok {
			g = &domain.GuestProfile{Guest: v.Guest, Company: v.Company}
			byKey[key] = g
			order = append(order, key)
		}

		nights := v.Nights()
		g.TotalStays++
		g.TotalNights += nights

		checkIn := v.CheckIn
		if g.LastVisit == nil || checkIn.After(*g.LastVisit) {
			g.LastVisit = &checkIn
			g.Guest = v.Guest
			g.Company = v.Company
		}
		if g.FirstVisit == nil || checkIn.Before(*g.FirstVisit) {
			g.FirstVisit = &checkIn
		}

		g.Reservations = append(g.Reservations, domain.GuestStay{
			ID:         v.ID,
			RoomNumber: v.RoomNumber,
			RoomName:   v.RoomName,
			CheckIn:    v.CheckIn,
			CheckOut:   v.CheckOut,
			Status:     v.Status,
			Nights:     nights,
		})
	}

	out := make([]domain.GuestProfile, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalStays != out[j].TotalStays {
			return out[i].TotalStays > out[j].TotalStays
		}
		return out[i].TotalNights > out[j].TotalNights
	})
	return out
}

// UpdateGuest applies p to every reservation whose guest name matches name
// ignoring case and surrounding space. It returns how many were updated.
func (s *GuestService) UpdateGuest(ctx context.Context, name string, p domain.GuestPatch) (int, error) {
	key := domain.GuestKey(name)
	if key == "" {
		return 0, fmt.Errorf("%w: guest name is required", domain.ErrValidation)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return 0, fmt.Errorf("%w: guest name must not be blank", domain.ErrValidation)
	}

	var n int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		matches, err := tx.FindReservations(ctx, domain.ReservationFilter{GuestKey: key})
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: guest %q", domain.ErrNotFound, name)
		}
		now := s.now()
		for _, m := range matches {
			// re-read under lock; a concurrent rename may have moved it away
			cur, err := tx.LockReservation(ctx, m.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if cur.GuestKey() != key {
				continue
			}
			next := p.Apply(cur)
			next.UpdatedAt = now
			if err := tx.UpdateReservation(ctx, next); err != nil {
				return err
			}
			n++
		}
		if n == 0 {
			return fmt.Errorf("%w: guest %q", domain.ErrNotFound, name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info().Str("guest", key).Int("reservations", n).Msg("guest updated")
	return n, nil
}

// SearchGuests matches query as a case-insensitive substring of guest names
// and returns distinct contact tuples, most recently booked first.
func (s *GuestService) SearchGuests(ctx context.Context, query string, limit int) ([]domain.GuestContact, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []domain.GuestContact{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	views, err := s.store.ListReservationViews(ctx, domain.OrderCreatedDesc)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	seen := make(map[string]struct{})
	out := []domain.GuestContact{}
	for _, v := range views {
		if !strings.Contains(strings.ToLower(v.Guest.Name), q) {
			continue
		}
		c := domain.GuestContact{Guest: v.Guest, Company: v.Company}
		k := contactKey(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func contactKey(c domain.GuestContact) string {
	parts := []*string{
		&c.Guest.Name, c.Guest.Email, c.Guest.Phone, c.Guest.Address, c.Guest.City,
		c.Guest.PostalCode, c.Guest.Country, c.Company.Name, c.Company.Address,
		c.Company.City, c.Company.PostalCode, c.Company.Country,
	}
	var b strings.Builder
	for _, p := range parts {
		if p == nil {
			b.WriteString("\x01")
		} else {
			b.WriteString(*p)
		}
		b.WriteString("\x00")
	}
	return b.String()
}
