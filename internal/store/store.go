// Package store is the local-first state container of a device session. It
// owns the daily records, credit tabs, settings and user profile, mirrors
// every committed mutation to device storage as one JSON document, and
// tracks what still has to be pushed to the remote backend.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"komagene-kasa/internal/events"
	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/model"
	"komagene-kasa/pkg/kv"
)

const (
	DefaultSnapshotKey = "komagene-storage"
	DefaultLegacyKey   = "gunkasa-data"
)

var (
	ErrLedgerNotFound = errors.New("ledger item not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
	ErrUnknownChannel = errors.New("unknown income channel")
)

// Snapshot is the persisted document.
type Snapshot struct {
	Records        []model.DailyRecord `json:"records"`
	GlobalLedgers  []model.LedgerItem  `json:"globalLedgers"`
	Settings       model.Settings      `json:"settings"`
	UserProfile    *model.UserProfile  `json:"userProfile"`
	PendingDeletes []model.Tombstone   `json:"pendingDeletes,omitempty"`
}

type Options struct {
	SnapshotKey string
	LegacyKey   string
	Logger      *zap.Logger
	Bus         EventBus.BusPublisher
	Now         func() time.Time
	NewID       func() string
}

// Store serializes every mutation through one lock, so read-modify-write
// flows always see the current state.
type Store struct {
	mu    sync.Mutex
	state Snapshot
	rev   uint64

	kv          kv.Store
	snapshotKey string
	legacyKey   string
	log         *zap.Logger
	bus         EventBus.BusPublisher
	now         func() time.Time
	newID       func() string
}

func New(storage kv.Store, opts Options) *Store {
	s := &Store{
		kv:          storage,
		snapshotKey: opts.SnapshotKey,
		legacyKey:   opts.LegacyKey,
		log:         opts.Logger,
		bus:         opts.Bus,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if s.snapshotKey == "" {
		s.snapshotKey = DefaultSnapshotKey
	}
	if s.legacyKey == "" {
		s.legacyKey = DefaultLegacyKey
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.state = emptySnapshot()
	return s
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Records:       []model.DailyRecord{},
		GlobalLedgers: []model.LedgerItem{},
		Settings:      model.DefaultSettings(),
	}
}

// Load hydrates from the snapshot key. When it is absent the legacy key is
// converted and written under the snapshot key. With neither, the store
// starts empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(s.snapshotKey)
	switch {
	case err == nil:
		snap := emptySnapshot()
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decode snapshot %s: %w", s.snapshotKey, err)
		}
		s.adopt(snap)
		s.log.Info("store hydrated",
			zap.String("key", s.snapshotKey),
			zap.Int("records", len(s.state.Records)),
			zap.Int("ledgers", len(s.state.GlobalLedgers)))
		return nil
	case !errors.Is(err, kv.ErrNotFound):
		return fmt.Errorf("read snapshot %s: %w", s.snapshotKey, err)
	}

	data, err = s.kv.Get(s.legacyKey)
	if errors.Is(err, kv.ErrNotFound) {
		s.log.Info("store starting empty", zap.String("key", s.snapshotKey))
		return nil
	}
	if err != nil {
		return fmt.Errorf("read legacy %s: %w", s.legacyKey, err)
	}

	rows, err := legacy.DecodeRows(data)
	if err != nil {
		s.log.Warn("legacy data not convertible, starting empty",
			zap.String("key", s.legacyKey), zap.Error(err))
		return nil
	}

	snap := emptySnapshot()
	snap.Records = legacy.ToDailyRecords(rows, s.newID)
	s.adopt(snap)
	for i := range s.state.Records {
		s.state.Records[i] = s.state.Records[i].WithRev(s.nextRev())
	}
	s.persistLocked()
	s.log.Info("legacy ledger migrated",
		zap.String("from", s.legacyKey),
		zap.String("to", s.snapshotKey),
		zap.Int("records", len(rows)))
	return nil
}

func (s *Store) adopt(snap Snapshot) {
	if snap.Records == nil {
		snap.Records = []model.DailyRecord{}
	}
	if snap.GlobalLedgers == nil {
		snap.GlobalLedgers = []model.LedgerItem{}
	}
	for i := range snap.Records {
		snap.Records[i].Normalize()
	}
	s.state = snap
}

func (s *Store) nextRev() uint64 {
	s.rev++
	return s.rev
}

func (s *Store) today() string {
	return model.BusinessDay(s.now())
}

func (s *Store) branchID() string {
	if s.state.UserProfile == nil {
		return ""
	}
	return s.state.UserProfile.BranchID
}

// persistLocked writes the full snapshot. Failures are logged and the
// in-memory state is kept.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.log.Warn("snapshot encode failed", zap.String("key", s.snapshotKey), zap.Error(err))
		return
	}
	if err := s.kv.Put(s.snapshotKey, data); err != nil {
		s.log.Warn("snapshot write failed", zap.String("key", s.snapshotKey), zap.Error(err))
	}
}

func (s *Store) publish(changes ...events.Change) {
	if s.bus == nil {
		return
	}
	for _, c := range changes {
		s.bus.Publish(events.TopicStoreChanged, c)
	}
}

// mutate runs fn under the lock, persists when it reports changes, and
// publishes them once the lock is released.
func (s *Store) mutate(fn func() []events.Change) {
	s.mu.Lock()
	changes := fn()
	if len(changes) > 0 {
		s.persistLocked()
	}
	s.mu.Unlock()
	s.publish(changes...)
}

// stampRecord prepares a record for commit: normalized, dirty, tenant set,
// every expense and inventory line addressable.
func (s *Store) stampRecord(r model.DailyRecord) model.DailyRecord {
	r = r.Clone()
	r.Normalize()
	for i := range r.Expenses {
		if r.Expenses[i].ID == "" {
			r.Expenses[i].ID = s.newID()
		}
	}
	for i := range r.Inventory {
		if r.Inventory[i].ID == "" {
			r.Inventory[i].ID = s.newID()
		}
	}
	r.IsSynced = false
	if b := s.branchID(); b != "" {
		r.BranchID = b
	}
	return r.WithRev(s.nextRev())
}

func (s *Store) stampLedger(l model.LedgerItem) model.LedgerItem {
	l.Amount = l.Amount.Normalize()
	l.IsSynced = false
	if b := s.branchID(); b != "" {
		l.BranchID = b
	}
	return l.WithRev(s.nextRev())
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() Snapshot {
	out := Snapshot{
		Records:        make([]model.DailyRecord, len(s.state.Records)),
		GlobalLedgers:  append([]model.LedgerItem{}, s.state.GlobalLedgers...),
		Settings:       s.state.Settings,
		PendingDeletes: append([]model.Tombstone(nil), s.state.PendingDeletes...),
	}
	for i, r := range s.state.Records {
		out.Records[i] = r.Clone()
	}
	if s.state.UserProfile != nil {
		p := *s.state.UserProfile
		out.UserProfile = &p
	}
	return out
}

// Records returns the records in insertion order.
func (s *Store) Records() []model.DailyRecord {
	return s.Snapshot().Records
}

func (s *Store) GlobalLedgers() []model.LedgerItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LedgerItem{}, s.state.GlobalLedgers...)
}

func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

func (s *Store) UserProfile() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.UserProfile == nil {
		return nil
	}
	p := *s.state.UserProfile
	return &p
}

// Record looks a record up by id.
func (s *Store) Record(id string) (model.DailyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.recordIndex(id); i >= 0 {
		return s.state.Records[i].Clone(), true
	}
	return model.DailyRecord{}, false
}

// RecordByDate returns the first record of the day.
func (s *Store) RecordByDate(date string) (model.DailyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.dateIndex(s.state.Records, date); i >= 0 {
		return s.state.Records[i].Clone(), true
	}
	return model.DailyRecord{}, false
}

func (s *Store) recordIndex(id string) int {
	for i := range s.state.Records {
		if s.state.Records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) dateIndex(records []model.DailyRecord, date string) int {
	for i := range records {
		if records[i].Date == date {
			return i
		}
	}
	return -1
}

func (s *Store) ledgerIndex(id string) int {
	for i := range s.state.GlobalLedgers {
		if s.state.GlobalLedgers[i].ID == id {
			return i
		}
	}
	return -1
}
