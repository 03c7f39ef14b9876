package model

import "github.com/google/uuid"

// PaymentMethod is how a POS basket was settled.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Channel maps the payment method onto the record's income channel.
func (p PaymentMethod) Channel() IncomeChannel {
	if p == PaymentCard {
		return ChannelCreditCard
	}
	return ChannelCash
}

// SaleLine is one basket position as requested by the POS.
type SaleLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// Sale is a priced checkout, merged into the day's record.
type Sale struct {
	Date          string        `json:"date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Lines         []PricedLine  `json:"lines"`
	Total         Amount        `json:"total"`
}

// PricedLine snapshots the catalog price at checkout time.
type PricedLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	UnitPrice Amount    `json:"unit_price"`
	LineTotal Amount    `json:"line_total"`
}
