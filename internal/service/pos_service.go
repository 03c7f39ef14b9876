package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/repository"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/validator"
)

var (
	ErrEmptyBasket          = errors.New("basket is empty")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash or card")
	ErrProductUnavailable   = errors.New("product is not available")
)

type CheckoutRequest struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Lines         []model.SaleLine    `json:"lines" validate:"dive"`
}

type CheckoutResponse struct {
	Sale   model.Sale        `json:"sale"`
	Record model.DailyRecord `json:"record"`
}

type PosService interface {
	Checkout(req CheckoutRequest, branchID string) (*CheckoutResponse, error)
}

type posService struct {
	products repository.ProductRepository
	store    *store.Store
	now      func() time.Time
}

func NewPosService(products repository.ProductRepository, st *store.Store, now func() time.Time) PosService {
	if now == nil {
		now = time.Now
	}
	return &posService{products: products, store: st, now: now}
}

// Checkout prices the basket from the catalog and merges the total into
// today's record under cash or card.
func (s *posService) Checkout(req CheckoutRequest, branchID string) (*CheckoutResponse, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyBasket
	}
	if req.PaymentMethod != model.PaymentCash && req.PaymentMethod != model.PaymentCard {
		return nil, ErrInvalidPaymentMethod
	}
	if err := validator.FirstError(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	catalog := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	sale := model.Sale{
		Date:          Today(s.now),
		PaymentMethod: req.PaymentMethod,
		Lines:         make([]model.PricedLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		p, ok := catalog[l.ProductID]
		if !ok || !p.IsActive || p.BranchID != branchID {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, l.ProductID)
		}
		lineTotal := p.Price * model.Amount(l.Quantity)
		sale.Lines = append(sale.Lines, model.PricedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			LineTotal: lineTotal,
		})
		sale.Total += lineTotal
	}

	rec, err := s.store.MergeIncome(sale.Date, req.PaymentMethod.Channel(), sale.Total, "pos")
	if err != nil {
		return nil, err
	}
	return &CheckoutResponse{Sale: sale, Record: rec}, nil
}
