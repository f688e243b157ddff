package domain

import (
	"strings"
	"time"
)

// GuestKey normalises a guest name into the identity shared by all of the
// guest's reservations.
func GuestKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GuestProfile is derived from reservations on every read and never stored.
type GuestProfile struct {
	Guest
	Company
	TotalStays   int         `json:"total_stays"`
	TotalNights  int         `json:"total_nights"`
	FirstVisit   *time.Time  `json:"first_visit"`
	LastVisit    *time.Time  `json:"last_visit"`
	Reservations []GuestStay `json:"reservations"`
}

type GuestStay struct {
	ID         string    `json:"id"`
	RoomNumber string    `json:"room_number"`
	RoomName   string    `json:"room_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Status     Status    `json:"status"`
	Nights     int       `json:"nights"`
}

// GuestContact is one distinct contact tuple returned by guest search.
type GuestContact struct {
	Guest
	Company
}

// GuestPatch is applied to every reservation of a guest.
type GuestPatch struct {
	Name              *string
	Email             *string
	Phone             *string
	Address           *string
	City              *string
	PostalCode        *string
	Country           *string
	Company           *string
	CompanyAddress    *string
	CompanyCity       *string
	CompanyPostalCode *string
	CompanyCountry    *string
}

func (p GuestPatch) Empty() bool {
	return p == GuestPatch{}
}

func (p GuestPatch) Apply(r Reservation) Reservation {
	if p.Name != nil {
		r.Guest.Name = *p.Name
	}
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	set(&r.Guest.Email, p.Email)
	set(&r.Guest.Phone, p.Phone)
	set(&r.Guest.Address, p.Address)
	set(&r.Guest.City, p.City)
	set(&r.Guest.PostalCode, p.PostalCode)
	set(&r.Guest.Country, p.Country)
	set(&r.Company.Name, p.Company)
	set(&r.Company.Address, p.CompanyAddress)
	set(&r.Company.City, p.CompanyCity)
	set(&r.Company.PostalCode, p.CompanyPostalCode)
	set(&r.Company.Country, p.CompanyCountry)
	return r
}
