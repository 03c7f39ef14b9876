// Package legacy reads and maintains the old single-file ledger: one flat
// array of day rows kept under its own storage key.
package legacy

import (
	"encoding/json"
	"errors"
	"fmt"

	"komagene-kasa/internal/model"
)

// Row is one day of the old ledger.
type Row struct {
	ID          string       `json:"id"`
	Date        string       `json:"date"`
	POS         model.Amount `json:"pos"`
	Cash        model.Amount `json:"cash"`
	Yemeksepeti model.Amount `json:"yemeksepeti"`
	Getir       model.Amount `json:"getir"`
	Trendyol    model.Amount `json:"trendyol"`
	Gelal       model.Amount `json:"gelal"`
	Supplier    model.Amount `json:"supplier"`
	Staff       model.Amount `json:"staff"`
	Bills       model.Amount `json:"bills"`
	Tax         model.Amount `json:"tax"`
	Other       model.Amount `json:"other"`
	Note        string       `json:"note"`
	Marked      bool         `json:"marked"`
}

var ErrNotRows = errors.New("legacy: data is not a flat array of day rows")

// DecodeRows parses the flat array stored under the legacy key.
func DecodeRows(data []byte) ([]Row, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRows, err)
	}
	for i, obj := range raw {
		if !IsRowShape(obj) {
			return nil, fmt.Errorf("%w: element %d", ErrNotRows, i)
		}
	}

	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRows, err)
	}
	return rows, nil
}

// IsRowShape reports whether a decoded object looks like a legacy row rather
// than a current daily record.
func IsRowShape(obj map[string]json.RawMessage) bool {
	if _, ok := obj["date"]; !ok {
		return false
	}
	if _, ok := obj["income"]; ok {
		return false
	}
	for _, k := range []string{"pos", "cash", "yemeksepeti", "getir", "trendyol", "gelal", "supplier", "staff", "bills", "tax", "other"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// ToDailyRecord converts a row. Each non-zero expense column becomes one line.
func ToDailyRecord(r Row, newID func() string) model.DailyRecord {
	id := r.ID
	if id == "" {
		id = newID()
	}

	rec := model.NewDailyRecord(id, r.Date)
	rec.Income.Cash = r.Cash
	rec.Income.CreditCard = r.POS
	rec.Income.Online = model.OnlineIncome{
		Yemeksepeti: r.Yemeksepeti,
		Getir:       r.Getir,
		Trendyol:    r.Trendyol,
		Gelal:       r.Gelal,
	}
	rec.Income.Source = "legacy"

	columns := []struct {
		cat    model.ExpenseCategory
		amount model.Amount
	}{
		{model.ExpenseSupplier, r.Supplier},
		{model.ExpenseStaff, r.Staff},
		{model.ExpenseBills, r.Bills},
		{model.ExpenseTax, r.Tax},
		{model.ExpenseOther, r.Other},
	}
	for _, c := range columns {
		if c.amount == 0 {
			continue
		}
		rec.Expenses = append(rec.Expenses, model.Expense{
			ID:       id + "-" + string(c.cat),
			Amount:   c.amount,
			Category: c.cat,
		})
	}

	rec.Note = r.Note
	rec.Marked = r.Marked
	rec.Normalize()
	return rec
}

// ToDailyRecords converts every row, keeping order.
func ToDailyRecords(rows []Row, newID func() string) []model.DailyRecord {
	out := make([]model.DailyRecord, len(rows))
	for i, r := range rows {
		out[i] = ToDailyRecord(r, newID)
	}
	return out
}
