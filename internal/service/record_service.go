package service

import (
	"errors"
	"fmt"
	"time"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/validator"
)

var (
	ErrRecordClosed = errors.New("record is closed")
	ErrValidation   = errors.New("validation failed")
)

// RecordQuery narrows and orders the record list. Empty fields are ignored.
type RecordQuery struct {
	Start  string
	End    string
	Search string
	Sort   string
	Dir    string
}

type RecordService interface {
	List(q RecordQuery) ([]model.DailyRecord, error)
	Get(id string) (model.DailyRecord, error)
	Create(r model.DailyRecord) (model.DailyRecord, error)
	Update(id string, r model.DailyRecord) (model.DailyRecord, error)
	Delete(id string) error
	Close(id string) (model.DailyRecord, error)
}

type recordService struct {
	store *store.Store
	now   func() time.Time
}

func NewRecordService(st *store.Store, now func() time.Time) RecordService {
	if now == nil {
		now = time.Now
	}
	return &recordService{store: st, now: now}
}

func (s *recordService) List(q RecordQuery) ([]model.DailyRecord, error) {
	start, err := ParseDay(q.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseDay(q.End)
	if err != nil {
		return nil, err
	}
	field, dir, err := ledger.ParseSort(q.Sort, q.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	records := s.store.Records()
	records = ledger.FilterByDateRange(records, start, end)
	records = ledger.Search(records, q.Search)
	return ledger.SortRecords(records, field, dir), nil
}

func (s *recordService) Get(id string) (model.DailyRecord, error) {
	rec, ok := s.store.Record(id)
	if !ok {
		return model.DailyRecord{}, store.ErrRecordNotFound
	}
	return rec, nil
}

func (s *recordService) prepare(r *model.DailyRecord) error {
	day, err := ParseDay(r.Date)
	if err != nil {
		return err
	}
	if day == "" {
		day = Today(s.now)
	}
	r.Date = day
	r.Normalize()
	if err := validator.FirstError(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (s *recordService) Create(r model.DailyRecord) (model.DailyRecord, error) {
	r.IsClosed = false
	if err := s.prepare(&r); err != nil {
		return model.DailyRecord{}, err
	}
	return s.store.AddRecord(r), nil
}

// Update replaces an open record. Closing happens only through Close.
func (s *recordService) Update(id string, r model.DailyRecord) (model.DailyRecord, error) {
	existing, ok := s.store.Record(id)
	if !ok {
		return model.DailyRecord{}, store.ErrRecordNotFound
	}
	if existing.IsClosed {
		return model.DailyRecord{}, ErrRecordClosed
	}

	r.ID = id
	r.BranchID = existing.BranchID
	r.IsClosed = false
	if err := s.prepare(&r); err != nil {
		return model.DailyRecord{}, err
	}
	if !s.store.UpdateRecord(r) {
		return model.DailyRecord{}, store.ErrRecordNotFound
	}
	return s.Get(id)
}

func (s *recordService) Delete(id string) error {
	if !s.store.DeleteRecord(id) {
		return store.ErrRecordNotFound
	}
	return nil
}

// Close locks the day. Closing a closed record is a no-op.
func (s *recordService) Close(id string) (model.DailyRecord, error) {
	rec, ok := s.store.Record(id)
	if !ok {
		return model.DailyRecord{}, store.ErrRecordNotFound
	}
	if rec.IsClosed {
		return rec, nil
	}
	rec.IsClosed = true
	if !s.store.UpdateRecord(rec) {
		return model.DailyRecord{}, store.ErrRecordNotFound
	}
	return s.Get(id)
}
