package model

import "time"

// DateLayout is the calendar-day key format used by records and ledger items.
const DateLayout = "2006-01-02"

// BusinessLocation is where the branches' business day turns over.
var BusinessLocation = loadLocation("Europe/Istanbul")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("TRT", 3*60*60)
	}
	return loc
}

// BusinessDay is the YYYY-MM-DD key of t in the business location.
func BusinessDay(t time.Time) string {
	return t.In(BusinessLocation).Format(DateLayout)
}

// ExpenseCategory classifies an expense line.
type ExpenseCategory string

const (
	ExpenseSupplier ExpenseCategory = "supplier"
	ExpenseStaff    ExpenseCategory = "staff"
	ExpenseBills    ExpenseCategory = "bills"
	ExpenseTax      ExpenseCategory = "tax"
	ExpenseOther    ExpenseCategory = "other"
)

// ExpenseCategories lists the categories in export column order.
var ExpenseCategories = []ExpenseCategory{ExpenseSupplier, ExpenseStaff, ExpenseBills, ExpenseTax, ExpenseOther}

// IncomeChannel names one additive income field of a record.
type IncomeChannel string

const (
	ChannelCash        IncomeChannel = "cash"
	ChannelCreditCard  IncomeChannel = "creditCard"
	ChannelYemeksepeti IncomeChannel = "yemeksepeti"
	ChannelGetir       IncomeChannel = "getir"
	ChannelTrendyol    IncomeChannel = "trendyol"
	ChannelGelal       IncomeChannel = "gelal"
)

// LowStockThreshold is the quantity at or below which an inventory note is flagged.
const LowStockThreshold = 1

type OnlineIncome struct {
	Yemeksepeti Amount `json:"yemeksepeti"`
	Getir       Amount `json:"getir"`
	Trendyol    Amount `json:"trendyol"`
	Gelal       Amount `json:"gelal"`
}

// Total sums every online platform.
func (o OnlineIncome) Total() float64 {
	return float64(o.Yemeksepeti) + float64(o.Getir) + float64(o.Trendyol) + float64(o.Gelal)
}

type Income struct {
	Cash       Amount       `json:"cash"`
	CreditCard Amount       `json:"creditCard"`
	Online     OnlineIncome `json:"online"`
	Source     string       `json:"source,omitempty"`
}

// Add increments one channel. Unknown channels are reported as false.
func (i *Income) Add(channel IncomeChannel, amount Amount) bool {
	switch channel {
	case ChannelCash:
		i.Cash += amount
	case ChannelCreditCard:
		i.CreditCard += amount
	case ChannelYemeksepeti:
		i.Online.Yemeksepeti += amount
	case ChannelGetir:
		i.Online.Getir += amount
	case ChannelTrendyol:
		i.Online.Trendyol += amount
	case ChannelGelal:
		i.Online.Gelal += amount
	default:
		return false
	}
	return true
}

type Expense struct {
	ID          string          `json:"id"`
	Amount      Amount          `json:"amount"`
	Category    ExpenseCategory `json:"category" validate:"required,oneof=supplier staff bills tax other"`
	Description string          `json:"description"`
}

// InventoryNote is a free-form stock note attached to a day.
type InventoryNote struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Quantity Amount `json:"quantity"`
	Unit     string `json:"unit"`
}

func (n InventoryNote) LowStock() bool {
	return float64(n.Quantity) <= LowStockThreshold
}

// ShiftSnapshot is the cash-drawer handover of a day.
type ShiftSnapshot struct {
	CashOnStart Amount `json:"cashOnStart"`
	CashOnEnd   Amount `json:"cashOnEnd"`
	Difference  Amount `json:"difference"`
	ClosedBy    string `json:"closedBy,omitempty"`
	Note        string `json:"note,omitempty"`
}

// DailyRecord is one business day's ledger for one branch.
type DailyRecord struct {
	ID         string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	BranchID   string          `gorm:"type:varchar(64);index:idx_record_branch_date" json:"branch_id,omitempty"`
	Date       string          `gorm:"type:varchar(10);index:idx_record_branch_date" json:"date" validate:"required,day"`
	Income     Income          `gorm:"serializer:json;type:jsonb" json:"income"`
	Expenses   []Expense       `gorm:"serializer:json;type:jsonb" json:"expenses" validate:"dive"`
	Inventory  []InventoryNote `gorm:"serializer:json;type:jsonb" json:"inventory" validate:"dive"`
	Shift      ShiftSnapshot   `gorm:"serializer:json;type:jsonb" json:"shift"`
	Note       string          `gorm:"type:text" json:"note"`
	ZReportURL string          `gorm:"type:text" json:"zReportUrl,omitempty"`
	Marked     bool            `json:"marked,omitempty"`
	IsClosed   bool            `json:"isClosed"`
	IsSynced   bool            `gorm:"-" json:"isSynced"`
	UpdatedAt  time.Time       `json:"-"`

	// rev increments on every local mutation; not persisted.
	rev uint64
}

func (DailyRecord) TableName() string {
	return "daily_records"
}

// Rev reports the local mutation counter.
func (r DailyRecord) Rev() uint64 {
	return r.rev
}

// WithRev returns a copy carrying the given mutation counter.
func (r DailyRecord) WithRev(rev uint64) DailyRecord {
	r.rev = rev
	return r
}

// Normalize zeroes non-finite amounts and recomputes the shift difference.
func (r *DailyRecord) Normalize() {
	r.Income.Cash = r.Income.Cash.Normalize()
	r.Income.CreditCard = r.Income.CreditCard.Normalize()
	r.Income.Online.Yemeksepeti = r.Income.Online.Yemeksepeti.Normalize()
	r.Income.Online.Getir = r.Income.Online.Getir.Normalize()
	r.Income.Online.Trendyol = r.Income.Online.Trendyol.Normalize()
	r.Income.Online.Gelal = r.Income.Online.Gelal.Normalize()

	for i := range r.Expenses {
		r.Expenses[i].Amount = r.Expenses[i].Amount.Normalize()
	}
	for i := range r.Inventory {
		r.Inventory[i].Quantity = r.Inventory[i].Quantity.Normalize()
	}

	r.Shift.CashOnStart = r.Shift.CashOnStart.Normalize()
	r.Shift.CashOnEnd = r.Shift.CashOnEnd.Normalize()
	r.Shift.Difference = r.Shift.CashOnEnd - r.Shift.CashOnStart

	if r.Expenses == nil {
		r.Expenses = []Expense{}
	}
	if r.Inventory == nil {
		r.Inventory = []InventoryNote{}
	}
}

// Clone deep-copies the slices of a record.
func (r DailyRecord) Clone() DailyRecord {
	if r.Expenses != nil {
		r.Expenses = append([]Expense(nil), r.Expenses...)
	}
	if r.Inventory != nil {
		r.Inventory = append([]InventoryNote(nil), r.Inventory...)
	}
	return r
}

// NewDailyRecord returns an empty record for the given day.
func NewDailyRecord(id, date string) DailyRecord {
	return DailyRecord{
		ID:        id,
		Date:      date,
		Expenses:  []Expense{},
		Inventory: []InventoryNote{},
	}
}
