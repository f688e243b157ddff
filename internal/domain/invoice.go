package domain

// Invoice is the fully resolved billing view of one reservation. Rendering it
// into a document happens outside this service.
type Invoice struct {
	Reservation   Reservation    `json:"reservation"`
	Room          Room           `json:"room"`
	Nights        int            `json:"nights"`
	Lines         []InvoiceLine  `json:"lines"`
	Total         float64        `json:"total"`
	PaymentMethod *PaymentMethod `json:"payment_method,omitempty"`
}

type InvoiceLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Amount      float64 `json:"amount"`
}
