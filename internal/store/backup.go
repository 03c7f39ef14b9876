package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"komagene-kasa/internal/events"
	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/model"
	"komagene-kasa/pkg/validator"
)

// BackupVersion is written into current backup files. Version 1 files come
// from the old single-file ledger.
const BackupVersion = 2

var (
	ErrRestoreNotConfirmed = errors.New("restore replaces every record and must be confirmed")
	ErrRestoreRejected     = errors.New("backup rejected")
	ErrLegacyBackup        = errors.New("backup comes from the old single-file ledger and cannot be restored here")
)

// Backup is the JSON backup file.
type Backup struct {
	Version int                 `json:"version"`
	Date    string              `json:"date"`
	Data    []model.DailyRecord `json:"data"`
}

// ExportBackup snapshots every record.
func (s *Store) ExportBackup() Backup {
	return Backup{
		Version: BackupVersion,
		Date:    s.now().Format(time.RFC3339),
		Data:    s.Records(),
	}
}

// DecodeBackup parses and checks a backup file. Nothing is imported on error.
func DecodeBackup(data []byte) (Backup, error) {
	var envelope struct {
		Version int               `json:"version"`
		Date    string            `json:"date"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrRestoreRejected, err)
	}
	if envelope.Data == nil {
		return Backup{}, fmt.Errorf("%w: missing data", ErrRestoreRejected)
	}
	if envelope.Version == legacy.BackupVersion {
		return Backup{}, ErrLegacyBackup
	}

	b := Backup{Version: envelope.Version, Date: envelope.Date, Data: make([]model.DailyRecord, 0, len(envelope.Data))}
	for i, raw := range envelope.Data {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Backup{}, fmt.Errorf("%w: element %d is not an object", ErrRestoreRejected, i)
		}
		if legacy.IsRowShape(obj) {
			return Backup{}, ErrLegacyBackup
		}

		var rec model.DailyRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return Backup{}, fmt.Errorf("%w: element %d: %v", ErrRestoreRejected, i, err)
		}
		if err := validator.FirstError(rec); err != nil {
			return Backup{}, fmt.Errorf("%w: element %d: %v", ErrRestoreRejected, i, err)
		}
		b.Data = append(b.Data, rec)
	}
	return b, nil
}

// RestoreBackup replaces the whole record set. Every restored record is
// unsynced; records that disappear are queued as removals.
func (s *Store) RestoreBackup(b Backup, confirmed bool) error {
	if !confirmed {
		return ErrRestoreNotConfirmed
	}
	for i, r := range b.Data {
		if !validDay(r.Date) {
			return fmt.Errorf("%w: element %d has date %q", ErrRestoreRejected, i, r.Date)
		}
	}

	s.mutate(func() []events.Change {
		keep := make(map[string]bool, len(b.Data))
		next := make([]model.DailyRecord, 0, len(b.Data))
		for _, r := range b.Data {
			if r.ID == "" {
				r.ID = s.newID()
			}
			keep[r.ID] = true
			next = append(next, s.stampRecord(r))
		}
		for _, old := range s.state.Records {
			if !keep[old.ID] {
				s.state.PendingDeletes = append(s.state.PendingDeletes, model.Tombstone{Kind: model.TombstoneRecord, ID: old.ID, BranchID: old.BranchID})
			}
		}
		s.state.Records = next
		return []events.Change{{Action: events.ActionRestored, Entity: events.EntityStore}}
	})
	return nil
}
