package model

// Role groups privileges for staff accounts.
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleOwner   = "OWNER"
	RoleCashier = "CASHIER"
)

var DefaultRoles = []Role{
	{
		Code:        RoleOwner,
		Name:        "İşletme Sahibi",
		Description: "Full access to the branch ledger",
	},
	{
		Code:        RoleCashier,
		Name:        "Kasiyer",
		Description: "Daily entry, POS and credit tabs",
	},
}

// CashierExcluded lists privileges an owner has and a cashier does not.
var CashierExcluded = map[string]bool{
	PrivRecordDelete:  true,
	PrivBackupRestore: true,
	PrivProductManage: true,
	PrivReportExport:  true,
	PrivUserManage:    true,
}
