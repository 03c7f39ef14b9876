package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options describes the remote Postgres (Supabase) connection.
type Options struct {
	DSN      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	TimeZone string
	LogLevel logger.LogLevel
}

// BuildDSN returns DSN when set, otherwise composes one from the parts.
func (o Options) BuildDSN() string {
	if o.DSN != "" {
		return o.DSN
	}
	tz := o.TimeZone
	if tz == "" {
		tz = "Europe/Istanbul"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		o.Host, o.User, o.Password, o.Name, o.Port, tz,
	)
}

// Connect opens the pool without pinging, so the node starts while offline.
func Connect(opts Options) (*gorm.DB, error) {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.BuildDSN(),
		PreferSimpleProtocol: true, // Supabase transaction mode has no prepared statements
	}), &gorm.Config{
		Logger:               newLogger,
		PrepareStmt:          false,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
