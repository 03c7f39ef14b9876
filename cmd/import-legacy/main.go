// Command import-legacy loads a Günkasa export (the raw row array or a
// legacy backup file) into the device store. With -from-device it reads the
// rows still kept under LEGACY_KEY in device storage instead.
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"komagene-kasa/internal/config"
	"komagene-kasa/internal/legacy"
	"komagene-kasa/internal/store"
	"komagene-kasa/pkg/kv"
	zaplog "komagene-kasa/pkg/logger"
)

func main() {
	in := flag.String("in", "", "legacy JSON file (row array or backup file)")
	fromDevice := flag.Bool("from-device", false, "read the rows under LEGACY_KEY in device storage")
	replace := flag.Bool("replace", false, "replace every record instead of appending")
	flag.Parse()

	if (*in == "") == !*fromDevice {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.Load()

	zlog, err := zaplog.New(zaplog.Options{Mode: cfg.LogMode, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	var storage kv.Store
	if cfg.StorageDriver == "file" {
		storage, err = kv.OpenFile(cfg.StoragePath)
	} else {
		storage, err = kv.OpenBolt(cfg.StoragePath)
	}
	if err != nil {
		zlog.Fatal("open device storage", zap.Error(err))
	}
	defer storage.Close()

	source := *in
	var data []byte
	if *fromDevice {
		source = cfg.LegacyKey
		data, err = storage.Get(cfg.LegacyKey)
	} else {
		data, err = os.ReadFile(*in)
	}
	if err != nil {
		zlog.Fatal("read input", zap.String("source", source), zap.Error(err))
	}
	rows, err := decode(data)
	if err != nil {
		zlog.Fatal("decode legacy data", zap.String("source", source), zap.Error(err))
	}
	records := legacy.ToDailyRecords(rows, uuid.NewString)

	st := store.New(storage, store.Options{
		SnapshotKey: cfg.SnapshotKey,
		LegacyKey:   cfg.LegacyKey,
		Logger:      zlog.Named("store"),
	})
	if err := st.Load(); err != nil {
		zlog.Fatal("hydrate store", zap.Error(err))
	}

	if *replace {
		b := store.Backup{Version: store.BackupVersion, Date: time.Now().Format(time.RFC3339), Data: records}
		if err := st.RestoreBackup(b, true); err != nil {
			zlog.Fatal("replace records", zap.Error(err))
		}
	} else {
		for _, r := range records {
			st.AddRecord(r)
		}
	}

	zlog.Info("legacy rows imported",
		zap.String("source", source),
		zap.Int("records", len(records)),
		zap.Bool("replaced", *replace))
}

// decode accepts the raw row array as well as the legacy backup envelope.
func decode(data []byte) ([]legacy.Row, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return legacy.DecodeRows(trimmed)
	}
	b, err := legacy.DecodeBackup(data)
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}
