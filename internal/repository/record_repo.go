package repository

import (
	"context"

	"komagene-kasa/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyRecordRepository interface {
	Upsert(ctx context.Context, rec *model.DailyRecord) error
	Delete(ctx context.Context, branchID, id string) error
	FindByBranch(ctx context.Context, branchID string) ([]model.DailyRecord, error)
	FindByID(ctx context.Context, id string) (*model.DailyRecord, error)
}

type dailyRecordRepo struct {
	db *gorm.DB
}

func NewDailyRecordRepo(db *gorm.DB) DailyRecordRepository {
	return &dailyRecordRepo{db}
}

// Upsert writes the whole record; the client id is the conflict key.
func (r *dailyRecordRepo) Upsert(ctx context.Context, rec *model.DailyRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}

// Delete only removes the row when it belongs to branchID.
func (r *dailyRecordRepo) Delete(ctx context.Context, branchID, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND branch_id = ?", id, branchID).
		Delete(&model.DailyRecord{}).Error
}

func (r *dailyRecordRepo) FindByBranch(ctx context.Context, branchID string) ([]model.DailyRecord, error) {
	var records []model.DailyRecord
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

func (r *dailyRecordRepo) FindByID(ctx context.Context, id string) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
