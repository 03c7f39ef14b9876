package service

import (
	"fmt"
	"strings"
	"time"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/validator"
)

// CreditList is the open veresiye book.
type CreditList struct {
	Items       []model.LedgerItem `json:"items"`
	Count       int                `json:"count"`
	Outstanding float64            `json:"outstanding"`
}

type CreditService interface {
	List(customer string) CreditList
	Add(item model.LedgerItem) (model.LedgerItem, error)
	Remove(id string) error
	Pay(id, date string) (model.DailyRecord, error)
}

type creditService struct {
	store *store.Store
	now   func() time.Time
}

func NewCreditService(st *store.Store, now func() time.Time) CreditService {
	if now == nil {
		now = time.Now
	}
	return &creditService{store: st, now: now}
}

// List returns the unpaid tabs, optionally only those whose customer name
// contains customer.
func (s *creditService) List(customer string) CreditList {
	q := strings.ToLower(strings.TrimSpace(customer))
	out := CreditList{Items: []model.LedgerItem{}}
	for _, item := range s.store.GlobalLedgers() {
		if q != "" && !strings.Contains(strings.ToLower(item.Customer), q) {
			continue
		}
		out.Items = append(out.Items, item)
		out.Outstanding += float64(item.Amount)
	}
	out.Count = len(out.Items)
	return out
}

func (s *creditService) Add(item model.LedgerItem) (model.LedgerItem, error) {
	created, err := ParseDay(item.CreatedDate)
	if err != nil {
		return model.LedgerItem{}, err
	}
	if created == "" {
		created = Today(s.now)
	}
	due, err := ParseDay(item.DueDate)
	if err != nil {
		return model.LedgerItem{}, err
	}

	item.Customer = strings.TrimSpace(item.Customer)
	item.CreatedDate = created
	item.DueDate = due
	item.Amount = item.Amount.Normalize()
	item.IsPaid = false
	if err := validator.FirstError(item); err != nil {
		return model.LedgerItem{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.store.AddLedger(item), nil
}

func (s *creditService) Remove(id string) error {
	if !s.store.RemoveLedger(id) {
		return store.ErrLedgerNotFound
	}
	return nil
}

// Pay settles the tab into the cash income of date, today when empty.
func (s *creditService) Pay(id, date string) (model.DailyRecord, error) {
	day, err := ParseDay(date)
	if err != nil {
		return model.DailyRecord{}, err
	}
	if day == "" {
		day = Today(s.now)
	}
	return s.store.PayLedger(id, day)
}
