package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"komagene-kasa/internal/ledger"
	"komagene-kasa/internal/model"
	"komagene-kasa/pkg/kv"
)

var (
	ErrNoLedger            = errors.New("legacy: no ledger on this device")
	ErrRowNotFound         = errors.New("legacy: row not found")
	ErrRestoreNotConfirmed = errors.New("legacy: restore requires confirmation")
)

// Ledger keeps the rows in memory and saves the whole array after every
// mutation. It has no sync or tenant concept.
type Ledger struct {
	mu   sync.Mutex
	kv   kv.Store
	key  string
	rows []Row
	now  func() time.Time
}

// Open loads the rows under key. An empty ledger is seeded with today's row.
func Open(store kv.Store, key string, now func() time.Time) (*Ledger, error) {
	if now == nil {
		now = time.Now
	}
	l := &Ledger{kv: store, key: key, now: now}

	data, err := store.Get(key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read legacy ledger: %w", err)
	default:
		rows, err := DecodeRows(data)
		if err != nil {
			return nil, err
		}
		l.rows = rows
	}

	if len(l.rows) == 0 {
		l.rows = []Row{l.emptyRow(l.today())}
		if err := l.save(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// OpenExisting is Open for a device that may never have run the old
// ledger. It returns ErrNoLedger instead of creating the key, so a fresh
// device is not handed a legacy row to migrate.
func OpenExisting(store kv.Store, key string, now func() time.Time) (*Ledger, error) {
	if _, err := store.Get(key); errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNoLedger
	} else if err != nil {
		return nil, fmt.Errorf("read legacy ledger: %w", err)
	}
	return Open(store, key, now)
}

func (l *Ledger) today() string {
	return model.BusinessDay(l.now())
}

func (l *Ledger) emptyRow(date string) Row {
	return Row{ID: uuid.NewString(), Date: date}
}

func (l *Ledger) save() error {
	data, err := json.Marshal(l.rows)
	if err != nil {
		return err
	}
	return l.kv.Put(l.key, data)
}

// Rows returns a copy of every row in stored order.
func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Row(nil), l.rows...)
}

// Add appends a row and saves.
func (l *Ledger) Add(r Row) (Row, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date == "" {
		r.Date = l.today()
	}
	l.rows = append(l.rows, r)
	return r, l.save()
}

// Update replaces the row with the same id.
func (l *Ledger) Update(r Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].ID == r.ID {
			l.rows[i] = r
			return l.save()
		}
	}
	return ErrRowNotFound
}

// Delete removes the row. Emptying the ledger seeds today's row again.
func (l *Ledger) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			if len(l.rows) == 0 {
				l.rows = []Row{l.emptyRow(l.today())}
			}
			return l.save()
		}
	}
	return ErrRowNotFound
}

// Query filters by inclusive date range and search text, then sorts.
func (l *Ledger) Query(start, end, search string, field ledger.SortField, dir ledger.SortDir) []model.DailyRecord {
	records := ToDailyRecords(l.Rows(), uuid.NewString)
	records = ledger.FilterByDateRange(records, start, end)
	records = ledger.Search(records, search)
	return ledger.SortRecords(records, field, dir)
}

// Summary aggregates every row with the same math as the current ledger.
func (l *Ledger) Summary() ledger.Summary {
	return ledger.GrandTotals(ToDailyRecords(l.Rows(), uuid.NewString))
}

// ExportCSV writes every row in the shared CSV format.
func (l *Ledger) ExportCSV(w io.Writer) error {
	return ledger.WriteCSV(w, ToDailyRecords(l.Rows(), uuid.NewString))
}

// Backup snapshots the whole array.
func (l *Ledger) Backup() Backup {
	return Backup{
		Version: BackupVersion,
		Date:    l.now().Format(time.RFC3339),
		Data:    l.Rows(),
	}
}

// Restore replaces every row with the backup's rows.
func (l *Ledger) Restore(b Backup, confirmed bool) error {
	if !confirmed {
		return ErrRestoreNotConfirmed
	}
	for i, r := range b.Data {
		if _, err := time.Parse(model.DateLayout, r.Date); err != nil {
			return fmt.Errorf("%w: row %d has date %q", ErrInvalidBackup, i, r.Date)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append([]Row(nil), b.Data...)
	if len(l.rows) == 0 {
		l.rows = []Row{l.emptyRow(l.today())}
	}
	return l.save()
}
