// Package syncer pushes locally committed changes to the remote backend one
// at a time and pulls a branch's remote state into the store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"komagene-kasa/internal/model"
	"komagene-kasa/internal/store"
)

var (
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrNoSession      = errors.New("no active branch session")
)

// Remote is the backend collaborator. Every local change maps to one call.
type Remote interface {
	UpsertRecord(ctx context.Context, rec model.DailyRecord) error
	UpsertLedger(ctx context.Context, item model.LedgerItem) error
	DeleteRecord(ctx context.Context, branchID, id string) error
	DeleteLedger(ctx context.Context, branchID, id string) error
	FetchRecords(ctx context.Context, branchID string) ([]model.DailyRecord, error)
	FetchLedgers(ctx context.Context, branchID string) ([]model.LedgerItem, error)
}

// LocalStore is the part of the store the syncer drives.
type LocalStore interface {
	Pending() store.Pending
	MarkRecordSynced(id string, rev uint64) bool
	MarkLedgerSynced(id string, rev uint64) bool
	AckTombstone(t model.Tombstone) bool
	ApplyRemote(records []model.DailyRecord, ledgers []model.LedgerItem) int
	UserProfile() *model.UserProfile
}

// Progress is reported after every item.
type Progress struct {
	Done  int    `json:"done"`
	Total int    `json:"total"`
	Kind  string `json:"kind"`
	ID    string `json:"id"`
}

// Failure names the item that stopped a push.
type Failure struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Err  error  `json:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("sync %s %s: %v", f.Kind, f.ID, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

type Result struct {
	Total      int       `json:"total"`
	Pushed     int       `json:"pushed"`
	Failed     *Failure  `json:"failed,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Status struct {
	Running bool    `json:"running"`
	Pending int     `json:"pending"`
	Last    *Result `json:"last,omitempty"`
}

type Syncer struct {
	local  LocalStore
	remote Remote
	log    *zap.Logger

	mu      sync.Mutex
	running bool
	last    *Result
}

func New(local LocalStore, remote Remote, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{local: local, remote: remote, log: log}
}

func (s *Syncer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Syncer) end(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if res != nil {
		s.last = res
	}
}

// Status reports whether a push runs, how much is pending and the last result.
func (s *Syncer) Status() Status {
	pending := s.local.Pending().Len()
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Running: s.running, Pending: pending}
	if s.last != nil {
		r := *s.last
		st.Last = &r
	}
	return st
}

// Push uploads records, then credit tabs, then removals, awaiting each call.
// The first failure stops the run; items already pushed stay synced.
func (s *Syncer) Push(ctx context.Context, onProgress func(Progress)) (Result, error) {
	if !s.begin() {
		return Result{}, ErrSyncInProgress
	}

	res := Result{StartedAt: time.Now()}
	defer func() {
		res.FinishedAt = time.Now()
		s.end(&res)
	}()

	pending := s.local.Pending()
	res.Total = pending.Len()
	s.log.Info("sync started", zap.Int("pending", res.Total))

	step := func(kind, id string, push func() error, commit func()) error {
		if err := push(); err != nil {
			res.Failed = &Failure{Kind: kind, ID: id, Err: err}
			res.Error = res.Failed.Error()
			s.log.Warn("sync stopped",
				zap.String("kind", kind), zap.String("id", id),
				zap.Int("pushed", res.Pushed), zap.Int("total", res.Total),
				zap.Error(err))
			return res.Failed
		}
		commit()
		res.Pushed++
		if onProgress != nil {
			onProgress(Progress{Done: res.Pushed, Total: res.Total, Kind: kind, ID: id})
		}
		return nil
	}

	for _, rec := range pending.Records {
		rec := rec
		err := step("record", rec.ID,
			func() error { return s.remote.UpsertRecord(ctx, rec) },
			func() { s.local.MarkRecordSynced(rec.ID, rec.Rev()) })
		if err != nil {
			return res, err
		}
	}

	for _, item := range pending.Ledgers {
		item := item
		err := step("ledger", item.ID,
			func() error { return s.remote.UpsertLedger(ctx, item) },
			func() { s.local.MarkLedgerSynced(item.ID, item.Rev()) })
		if err != nil {
			return res, err
		}
	}

	for _, t := range pending.Tombstones {
		t := t
		err := step(string(t.Kind), t.ID,
			func() error { return s.pushTombstone(ctx, t) },
			func() { s.local.AckTombstone(t) })
		if err != nil {
			return res, err
		}
	}

	s.log.Info("sync finished", zap.Int("pushed", res.Pushed))
	return res, nil
}

func (s *Syncer) pushTombstone(ctx context.Context, t model.Tombstone) error {
	switch t.Kind {
	case model.TombstoneRecord:
		return s.remote.DeleteRecord(ctx, t.BranchID, t.ID)
	case model.TombstoneLedgerPaid:
		if t.Item != nil {
			return s.remote.UpsertLedger(ctx, *t.Item)
		}
		return s.remote.DeleteLedger(ctx, t.BranchID, t.ID)
	default:
		return s.remote.DeleteLedger(ctx, t.BranchID, t.ID)
	}
}

// Pull loads the active branch's remote records and credit tabs into the
// store and returns how many were applied.
func (s *Syncer) Pull(ctx context.Context) (int, error) {
	profile := s.local.UserProfile()
	if profile == nil || profile.BranchID == "" {
		return 0, ErrNoSession
	}
	if !s.begin() {
		return 0, ErrSyncInProgress
	}
	defer s.end(nil)

	records, err := s.remote.FetchRecords(ctx, profile.BranchID)
	if err != nil {
		return 0, fmt.Errorf("fetch records: %w", err)
	}
	ledgers, err := s.remote.FetchLedgers(ctx, profile.BranchID)
	if err != nil {
		return 0, fmt.Errorf("fetch ledgers: %w", err)
	}

	applied := s.local.ApplyRemote(records, ledgers)
	s.log.Info("pulled remote state",
		zap.String("branch_id", profile.BranchID),
		zap.Int("records", len(records)),
		zap.Int("ledgers", len(ledgers)),
		zap.Int("applied", applied))
	return applied, nil
}
