package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"komagene-kasa/internal/store"
)

type BackupService interface {
	Export() store.Backup
	Restore(data []byte, confirmed bool) (int, error)
	WriteFile(dir string) (string, error)
}

type backupService struct {
	store *store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewBackupService(st *store.Store, log *zap.Logger, now func() time.Time) BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &backupService{store: st, log: log, now: now}
}

func (s *backupService) Export() store.Backup {
	return s.store.ExportBackup()
}

// Restore replaces every record with the backup's, or nothing on any error.
func (s *backupService) Restore(data []byte, confirmed bool) (int, error) {
	b, err := store.DecodeBackup(data)
	if err != nil {
		return 0, err
	}
	if err := s.store.RestoreBackup(b, confirmed); err != nil {
		return 0, err
	}
	s.log.Info("backup restored", zap.String("backup_date", b.Date), zap.Int("records", len(b.Data)))
	return len(b.Data), nil
}

// BackupFileName is the name of the scheduled backup for a day.
func BackupFileName(at time.Time) string {
	return fmt.Sprintf("komagene-yedek-%s.json", at.Format("2006-01-02"))
}

// WriteFile stores the backup envelope in dir and returns its path.
func (s *backupService) WriteFile(dir string) (string, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, BackupFileName(s.now().In(Istanbul)))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
