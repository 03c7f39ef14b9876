package model

import "strings"

// OrderItem is a line of an order captured from a delivery platform page.
type OrderItem struct {
	Name     string `json:"name" validate:"required"`
	Quantity Amount `json:"quantity"`
	Price    Amount `json:"price"`
}

// ExternalOrder is the payload posted by the browser extension.
type ExternalOrder struct {
	ExternalID  string      `json:"external_id" validate:"required"`
	Source      string      `json:"source" validate:"required"`
	TableNo     string      `json:"table_no"`
	Items       []OrderItem `json:"items" validate:"dive"`
	TotalAmount Amount      `json:"total_amount" validate:"gt=0"`
	BranchID    string      `json:"branch_id"`
}

// Channel resolves the platform name to an income channel. Unknown sources
// are counted as cash sales at the counter.
func (o ExternalOrder) Channel() IncomeChannel {
	switch strings.ToLower(strings.TrimSpace(o.Source)) {
	case "yemeksepeti", "ys":
		return ChannelYemeksepeti
	case "getir":
		return ChannelGetir
	case "trendyol", "trendyolgo", "trendyol_go":
		return ChannelTrendyol
	case "gelal", "gel-al", "gel_al", "takeaway":
		return ChannelGelal
	default:
		return ChannelCash
	}
}
