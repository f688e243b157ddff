package app

import (
	"context"
	"fmt"

	"lobby_lobster/internal/domain"
)

type InvoiceService struct {
	reservations *ReservationService
	rooms        *RoomService
}

func NewInvoiceService(res *ReservationService, rooms *RoomService) *InvoiceService {
	return &InvoiceService{reservations: res, rooms: rooms}
}

// Invoice resolves a reservation and its room into billing lines. The stored
// total_price wins over the computed room line when present.
func (s *InvoiceService) Invoice(ctx context.Context, id string) (domain.Invoice, error) {
	r, err := s.reservations.Get(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	room, err := s.rooms.GetRoom(ctx, r.RoomID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return BuildInvoice(r, room), nil
}

func BuildInvoice(r domain.Reservation, room domain.Room) domain.Invoice {
	nights := r.Nights()
	var rate float64
	if r.PricePerNight != nil {
		rate = *r.PricePerNight
	}
	roomTotal := rate * float64(nights)

	lines := []domain.InvoiceLine{{
		Description: fmt.Sprintf("Room %s", room.Number),
		Quantity:    nights,
		UnitPrice:   rate,
		Amount:      roomTotal,
	}}
	if r.BreakfastIncluded {
		lines = append(lines, domain.InvoiceLine{Description: "Breakfast (included)", Quantity: nights})
	}

	total := roomTotal
	if r.TotalPrice != nil {
		total = *r.TotalPrice
	}
	return domain.Invoice{
		Reservation:   r,
		Room:          room,
		Nights:        nights,
		Lines:         lines,
		Total:         total,
		PaymentMethod: r.PaymentMethod,
	}
}
