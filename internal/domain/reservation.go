package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
)

// OccupyingStatuses block the room for their dates; the rest are historical.
var OccupyingStatuses = []Status{StatusConfirmed, StatusCheckedIn}

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Occupying() bool {
	return s == StatusConfirmed || s == StatusCheckedIn
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentInvoice    PaymentMethod = "INVOICE"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentDebitCard, PaymentCreditCard, PaymentInvoice:
		return true
	}
	return false
}

// Guest is the contact bundle stored on every reservation.
type Guest struct {
	Name       string  `json:"guest_name"`
	Email      *string `json:"guest_email,omitempty"`
	Phone      *string `json:"guest_phone,omitempty"`
	Address    *string `json:"guest_address,omitempty"`
	City       *string `json:"guest_city,omitempty"`
	PostalCode *string `json:"guest_postal_code,omitempty"`
	Country    *string `json:"guest_country,omitempty"`
}

// Company is the optional billing party for business bookings.
type Company struct {
	Name       *string `json:"guest_company,omitempty"`
	Address    *string `json:"company_address,omitempty"`
	City       *string `json:"company_city,omitempty"`
	PostalCode *string `json:"company_postal_code,omitempty"`
	Country    *string `json:"company_country,omitempty"`
}

type Reservation struct {
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	Guest
	Company
	CheckIn           time.Time      `json:"check_in"`
	CheckOut          time.Time      `json:"check_out"`
	Status            Status         `json:"status"`
	PricePerNight     *float64       `json:"price_per_night,omitempty"`
	BreakfastIncluded bool           `json:"breakfast_included"`
	TotalPrice        *float64       `json:"total_price,omitempty"`
	PaymentMethod     *PaymentMethod `json:"payment_method,omitempty"`
	Notes             *string        `json:"notes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func (r Reservation) Nights() int { return Nights(r.CheckIn, r.CheckOut) }

// GuestKey is the identity under which reservations fold into one guest.
func (r Reservation) GuestKey() string { return GuestKey(r.Guest.Name) }

func (r Reservation) Validate() error {
	if strings.TrimSpace(r.Guest.Name) == "" {
		return fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if strings.TrimSpace(r.RoomID) == "" {
		return fmt.Errorf("%w: room_id is required", ErrValidation)
	}
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return fmt.Errorf("%w: check_in and check_out are required", ErrValidation)
	}
	if !r.CheckOut.After(r.CheckIn) {
		return fmt.Errorf("%w: check-out date must be after check-in date", ErrValidation)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, r.Status)
	}
	if r.PaymentMethod != nil && !r.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, *r.PaymentMethod)
	}
	if r.PricePerNight != nil && *r.PricePerNight < 0 {
		return fmt.Errorf("%w: price_per_night must not be negative", ErrValidation)
	}
	if r.TotalPrice != nil && *r.TotalPrice < 0 {
		return fmt.Errorf("%w: total_price must not be negative", ErrValidation)
	}
	return nil
}

// ReservationView is a reservation joined with the display fields of its room.
type ReservationView struct {
	Reservation
	RoomNumber string `json:"room_number"`
	RoomName   string `json:"room_name"`
}

// ReservationPatch carries the fields of a partial update; nil means untouched.
type ReservationPatch struct {
	RoomID            *string
	Guest             GuestPatch
	CheckIn           *time.Time
	CheckOut          *time.Time
	Status            *Status
	PricePerNight     *float64
	BreakfastIncluded *bool
	TotalPrice        *float64
	PaymentMethod     *PaymentMethod
	Notes             *string
}

// TouchesSchedule reports whether the patch moves the booking in room or time.
func (p ReservationPatch) TouchesSchedule() bool {
	return p.RoomID != nil || p.CheckIn != nil || p.CheckOut != nil
}

// Apply merges the patch into r. An explicit TotalPrice wins; otherwise the
// total follows price_per_night x nights only when the effective rate or the
// night count changed, so re-sending unchanged values keeps an override.
func (p ReservationPatch) Apply(r Reservation) Reservation {
	oldRate, oldNights := r.PricePerNight, r.Nights()
	if p.RoomID != nil {
		r.RoomID = *p.RoomID
	}
	r = p.Guest.Apply(r)
	if p.CheckIn != nil {
		r.CheckIn = Day(*p.CheckIn)
	}
	if p.CheckOut != nil {
		r.CheckOut = Day(*p.CheckOut)
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.PricePerNight != nil {
		r.PricePerNight = p.PricePerNight
	}
	if p.BreakfastIncluded != nil {
		r.BreakfastIncluded = *p.BreakfastIncluded
	}
	if p.PaymentMethod != nil {
		r.PaymentMethod = p.PaymentMethod
	}
	if p.Notes != nil {
		r.Notes = p.Notes
	}
	switch {
	case p.TotalPrice != nil:
		r.TotalPrice = p.TotalPrice
	case r.PricePerNight != nil && (!sameRate(oldRate, r.PricePerNight) || r.Nights() != oldNights):
		r.TotalPrice = TotalFor(*r.PricePerNight, r.CheckIn, r.CheckOut)
	}
	return r
}

func sameRate(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// TotalFor prices a stay at a flat nightly rate.
func TotalFor(perNight float64, checkIn, checkOut time.Time) *float64 {
	total := perNight * float64(Nights(checkIn, checkOut))
	return &total
}

// ReservationFilter narrows FindReservations. Zero values mean "any".
type ReservationFilter struct {
	RoomID    string
	Statuses  []Status
	ExcludeID string
	GuestKey  string
	// Overlapping keeps only reservations whose [check_in, check_out)
	// overlaps [From, To).
	Overlapping *DateRange
	Offset      int
	Limit       int
}

type DateRange struct {
	From, To time.Time
}

type ReservationOrder int

const (
	OrderCheckInDesc ReservationOrder = iota
	OrderCreatedDesc
)
