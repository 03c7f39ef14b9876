package repository

import (
	"context"

	"komagene-kasa/internal/model"
)

// Remote adapts the record and ledger repositories to the syncer.
type Remote struct {
	Records DailyRecordRepository
	Ledgers LedgerRepository
}

func NewRemote(records DailyRecordRepository, ledgers LedgerRepository) *Remote {
	return &Remote{Records: records, Ledgers: ledgers}
}

func (r *Remote) UpsertRecord(ctx context.Context, rec model.DailyRecord) error {
	return r.Records.Upsert(ctx, &rec)
}

func (r *Remote) UpsertLedger(ctx context.Context, item model.LedgerItem) error {
	return r.Ledgers.Upsert(ctx, &item)
}

func (r *Remote) DeleteRecord(ctx context.Context, branchID, id string) error {
	return r.Records.Delete(ctx, branchID, id)
}

func (r *Remote) DeleteLedger(ctx context.Context, branchID, id string) error {
	return r.Ledgers.Delete(ctx, branchID, id)
}

func (r *Remote) FetchRecords(ctx context.Context, branchID string) ([]model.DailyRecord, error) {
	return r.Records.FindByBranch(ctx, branchID)
}

func (r *Remote) FetchLedgers(ctx context.Context, branchID string) ([]model.LedgerItem, error) {
	return r.Ledgers.FindByBranch(ctx, branchID)
}
