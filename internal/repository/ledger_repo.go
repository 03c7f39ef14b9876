package repository

import (
	"context"

	"komagene-kasa/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository interface {
	Upsert(ctx context.Context, item *model.LedgerItem) error
	Delete(ctx context.Context, branchID, id string) error
	FindByBranch(ctx context.Context, branchID string) ([]model.LedgerItem, error)
}

type ledgerRepo struct {
	db *gorm.DB
}

func NewLedgerRepo(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db}
}

// Upsert keeps paid tabs as rows with is_paid set, so the remote keeps the
// history of settled credit.
func (r *ledgerRepo) Upsert(ctx context.Context, item *model.LedgerItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(item).Error
}

// Delete only removes the row when it belongs to branchID.
func (r *ledgerRepo) Delete(ctx context.Context, branchID, id string) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND branch_id = ?", id, branchID).
		Delete(&model.LedgerItem{}).Error
}

func (r *ledgerRepo) FindByBranch(ctx context.Context, branchID string) ([]model.LedgerItem, error) {
	var items []model.LedgerItem
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("created_date ASC").
		Find(&items).Error
	return items, err
}
