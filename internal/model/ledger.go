package model

import "time"

// LedgerItem is a customer credit tab (veresiye), global rather than per day.
type LedgerItem struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Customer    string    `gorm:"type:varchar(255);not null" json:"customer" validate:"required"`
	Amount      Amount    `gorm:"not null" json:"amount" validate:"gt=0"`
	Description string    `gorm:"type:text" json:"description"`
	IsPaid      bool      `json:"isPaid"`
	CreatedDate string    `gorm:"type:varchar(10)" json:"createdDate" validate:"omitempty,day"`
	DueDate     string    `gorm:"type:varchar(10)" json:"dueDate,omitempty" validate:"omitempty,day"`
	BranchID    string    `gorm:"type:varchar(64);index" json:"branch_id,omitempty"`
	IsSynced    bool      `gorm:"-" json:"isSynced"`
	UpdatedAt   time.Time `json:"-"`

	rev uint64
}

func (LedgerItem) TableName() string {
	return "ledger_items"
}

func (l LedgerItem) Rev() uint64 {
	return l.rev
}

func (l LedgerItem) WithRev(rev uint64) LedgerItem {
	l.rev = rev
	return l
}

// TombstoneKind says what a pending removal refers to.
type TombstoneKind string

const (
	TombstoneRecord     TombstoneKind = "record"
	TombstoneLedger     TombstoneKind = "ledger"
	TombstoneLedgerPaid TombstoneKind = "ledger_paid"
)

// Tombstone is a local removal that the remote has not seen yet.
type Tombstone struct {
	Kind TombstoneKind `json:"kind"`
	ID   string        `json:"id"`
	// BranchID scopes the remote delete to the branch that owned the entity.
	BranchID string `json:"branchId,omitempty"`
	// Item carries the paid ledger entry so the remote can keep it as settled.
	Item *LedgerItem `json:"item,omitempty"`
}
