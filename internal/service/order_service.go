package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/validator"
)

var ErrWrongBranch = errors.New("order belongs to another branch")

// OrderForwarder relays an imported order to an external system.
type OrderForwarder interface {
	Forward(order model.ExternalOrder) error
}

type ImportResult struct {
	Duplicate bool              `json:"duplicate"`
	Channel   string            `json:"channel"`
	Record    model.DailyRecord `json:"record"`
}

type OrderService interface {
	Import(order model.ExternalOrder) (*ImportResult, error)
}

type orderService struct {
	store     *store.Store
	forwarder OrderForwarder
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	seen map[string]bool
}

// NewOrderService wires the import hook. forwarder may be nil.
func NewOrderService(st *store.Store, forwarder OrderForwarder, log *zap.Logger, now func() time.Time) OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &orderService{store: st, forwarder: forwarder, log: log, now: now, seen: map[string]bool{}}
}

// Import merges the order total into today's record for the order's platform.
// An external id already imported by this process is acknowledged without
// counting it again.
func (s *orderService) Import(order model.ExternalOrder) (*ImportResult, error) {
	order.TotalAmount = order.TotalAmount.Normalize()
	if err := validator.FirstError(order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if profile := s.store.UserProfile(); profile != nil && order.BranchID != "" && order.BranchID != profile.BranchID {
		return nil, ErrWrongBranch
	}

	channel := order.Channel()

	// Held across the merge so a retried delivery cannot be counted twice.
	s.mu.Lock()
	defer s.mu.Unlock()

	key := order.Source + ":" + order.ExternalID
	if s.seen[key] {
		rec, _ := s.store.RecordByDate(Today(s.now))
		return &ImportResult{Duplicate: true, Channel: string(channel), Record: rec}, nil
	}

	rec, err := s.store.MergeIncome(Today(s.now), channel, order.TotalAmount, order.Source)
	if err != nil {
		return nil, err
	}
	s.seen[key] = true

	s.log.Info("order imported",
		zap.String("external_id", order.ExternalID),
		zap.String("source", order.Source),
		zap.String("channel", string(channel)),
		zap.Float64("total", order.TotalAmount.Float64()))

	if s.forwarder != nil {
		go func(o model.ExternalOrder) {
			if err := s.forwarder.Forward(o); err != nil {
				s.log.Warn("order forward failed", zap.String("external_id", o.ExternalID), zap.Error(err))
			}
		}(order)
	}

	return &ImportResult{Channel: string(channel), Record: rec}, nil
}

// WebhookForwarder posts orders as JSON with fiber's HTTP client.
type WebhookForwarder struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

func (f *WebhookForwarder) Forward(order model.ExternalOrder) error {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	agent := fiber.Post(f.URL).JSON(order).Timeout(timeout)
	if f.Secret != "" {
		agent.Set("X-Webhook-Secret", f.Secret)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code >= 300 {
		return fmt.Errorf("webhook responded %d: %s", code, body)
	}
	return nil
}
