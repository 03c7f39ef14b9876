package main

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"komagene-kasa/internal/config"
	"komagene-kasa/internal/service"
)

// startJobs schedules the periodic backup in Istanbul time.
func startJobs(cfg *config.Config, backups service.BackupService, log *zap.Logger) *cron.Cron {
	sched := cron.New(cron.WithLocation(service.Istanbul), cron.WithParser(config.CronParser))

	_, err := sched.AddFunc(cfg.BackupCron, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("backup job panicked", zap.Any("panic", r))
			}
		}()

		started := time.Now()
		path, err := backups.WriteFile(cfg.BackupDir)
		if err != nil {
			log.Error("scheduled backup failed", zap.String("dir", cfg.BackupDir), zap.Error(err))
			return
		}
		log.Info("scheduled backup written", zap.String("path", path), zap.Duration("took", time.Since(started)))
	})
	if err != nil {
		log.Error("init backup job", zap.String("spec", cfg.BackupCron), zap.Error(err))
	}

	sched.Start()
	return sched
}
