package httpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"lobby_lobster/internal/domain"
)

const dateLayout = "2006-01-02"

// date accepts "2006-01-02" and, for clients that send timestamps, RFC 3339.
type date struct{ time.Time }

func (d *date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
		}
	}
	d.Time = domain.Day(t)
	return nil
}

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtDate(*t)
	return &s
}

// ---- requests ----

type guestFields struct {
	GuestName         *string `json:"guest_name"`
	GuestEmail        *string `json:"guest_email"`
	GuestPhone        *string `json:"guest_phone"`
	GuestAddress      *string `json:"guest_address"`
	GuestCity         *string `json:"guest_city"`
	GuestPostalCode   *string `json:"guest_postal_code"`
	GuestCountry      *string `json:"guest_country"`
	GuestCompany      *string `json:"guest_company"`
	CompanyAddress    *string `json:"company_address"`
	CompanyCity       *string `json:"company_city"`
	CompanyPostalCode *string `json:"company_postal_code"`
	CompanyCountry    *string `json:"company_country"`
}

func (g guestFields) patch() domain.GuestPatch {
	return domain.GuestPatch{
		Name:              g.GuestName,
		Email:             g.GuestEmail,
		Phone:             g.GuestPhone,
		Address:           g.GuestAddress,
		City:              g.GuestCity,
		PostalCode:        g.GuestPostalCode,
		Country:           g.GuestCountry,
		Company:           g.GuestCompany,
		CompanyAddress:    g.CompanyAddress,
		CompanyCity:       g.CompanyCity,
		CompanyPostalCode: g.CompanyPostalCode,
		CompanyCountry:    g.CompanyCountry,
	}
}

type reservationRequest struct {
	RoomID *string `json:"room_id"`
	guestFields
	CheckIn           *date                 `json:"check_in"`
	CheckOut          *date                 `json:"check_out"`
	Status            *domain.Status        `json:"status"`
	PricePerNight     *float64              `json:"price_per_night"`
	BreakfastIncluded *bool                 `json:"breakfast_included"`
	TotalPrice        *float64              `json:"total_price"`
	PaymentMethod     *domain.PaymentMethod `json:"payment_method"`
	Notes             *string               `json:"notes"`
}

func (q reservationRequest) patch() domain.ReservationPatch {
	p := domain.ReservationPatch{
		RoomID:            q.RoomID,
		Guest:             q.guestFields.patch(),
		Status:            q.Status,
		PricePerNight:     q.PricePerNight,
		BreakfastIncluded: q.BreakfastIncluded,
		TotalPrice:        q.TotalPrice,
		PaymentMethod:     q.PaymentMethod,
		Notes:             q.Notes,
	}
	if q.CheckIn != nil {
		p.CheckIn = &q.CheckIn.Time
	}
	if q.CheckOut != nil {
		p.CheckOut = &q.CheckOut.Time
	}
	return p
}

// reservation builds a create input by patching an empty reservation; the
// service fills id, status and timestamps.
func (q reservationRequest) reservation() domain.Reservation {
	p := q.patch()
	p.Status = nil
	r := p.Apply(domain.Reservation{})
	if q.Status != nil {
		r.Status = *q.Status
	}
	if q.TotalPrice != nil {
		r.TotalPrice = q.TotalPrice
	}
	return r
}

type guestRequest struct {
	guestFields
}

type roomRequest struct {
	Number      *string          `json:"number"`
	Name        *string          `json:"name"`
	Type        *domain.RoomType `json:"room_type"`
	Capacity    *int             `json:"capacity"`
	Floor       *int             `json:"floor"`
	Description *string          `json:"description"`
}

func (q roomRequest) patch() domain.RoomPatch {
	return domain.RoomPatch{
		Number:      q.Number,
		Name:        q.Name,
		Type:        q.Type,
		Capacity:    q.Capacity,
		Floor:       q.Floor,
		Description: q.Description,
	}
}

// ---- responses ----

// Shallower fields win in encoding/json, so these shadow the embedded
// time.Time values with plain calendar dates.

type reservationJSON struct {
	domain.Reservation
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
}

func toReservationJSON(r domain.Reservation) reservationJSON {
	return reservationJSON{Reservation: r, CheckIn: fmtDate(r.CheckIn), CheckOut: fmtDate(r.CheckOut), Nights: r.Nights()}
}

func toReservationsJSON(rs []domain.Reservation) []reservationJSON {
	out := make([]reservationJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationJSON(r))
	}
	return out
}

type reservationViewJSON struct {
	domain.ReservationView
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func toViewsJSON(vs []domain.ReservationView) []reservationViewJSON {
	out := make([]reservationViewJSON, 0, len(vs))
	for _, v := range vs {
		out = append(out, reservationViewJSON{ReservationView: v, CheckIn: fmtDate(v.CheckIn), CheckOut: fmtDate(v.CheckOut)})
	}
	return out
}

type guestStayJSON struct {
	domain.GuestStay
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

type guestProfileJSON struct {
	domain.GuestProfile
	FirstVisit   *string         `json:"first_visit"`
	LastVisit    *string         `json:"last_visit"`
	Reservations []guestStayJSON `json:"reservations"`
}

func toGuestsJSON(gs []domain.GuestProfile) []guestProfileJSON {
	out := make([]guestProfileJSON, 0, len(gs))
	for _, g := range gs {
		stays := make([]guestStayJSON, 0, len(g.Reservations))
		for _, s := range g.Reservations {
			stays = append(stays, guestStayJSON{GuestStay: s, CheckIn: fmtDate(s.CheckIn), CheckOut: fmtDate(s.CheckOut)})
		}
		out = append(out, guestProfileJSON{
			GuestProfile: g,
			FirstVisit:   fmtDatePtr(g.FirstVisit),
			LastVisit:    fmtDatePtr(g.LastVisit),
			Reservations: stays,
		})
	}
	return out
}

type invoiceJSON struct {
	domain.Invoice
	Reservation reservationJSON `json:"reservation"`
}
