package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BackupVersion is the version the old ledger wrote into its backup files.
const BackupVersion = 1

var ErrInvalidBackup = errors.New("legacy: invalid backup file")

// Backup is the legacy backup file: the whole row array.
type Backup struct {
	Version int    `json:"version"`
	Date    string `json:"date"`
	Data    []Row  `json:"data"`
}

// DecodeBackup parses a legacy backup file and checks every element is a row.
func DecodeBackup(data []byte) (Backup, error) {
	var envelope struct {
		Version int             `json:"version"`
		Date    string          `json:"date"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(envelope.Data) == 0 {
		return Backup{}, fmt.Errorf("%w: missing data", ErrInvalidBackup)
	}
	rows, err := DecodeRows(envelope.Data)
	if err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return Backup{Version: envelope.Version, Date: envelope.Date, Data: rows}, nil
}
