package model

// Privilege is a permission granted through a role.
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivRecordView    = "record:view"
	PrivRecordWrite   = "record:write"
	PrivRecordDelete  = "record:delete"
	PrivRecordClose   = "record:close"
	PrivLedgerView    = "ledger:view"
	PrivLedgerWrite   = "ledger:write"
	PrivLedgerPay     = "ledger:pay"
	PrivReportView    = "report:view"
	PrivReportExport  = "report:export"
	PrivProductManage = "product:manage"
	PrivPosCheckout   = "pos:checkout"
	PrivSyncRun       = "sync:run"
	PrivBackupView    = "backup:view"
	PrivBackupRestore = "backup:restore"
	PrivUserManage    = "user:manage"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivRecordView, Name: "View Daily Records"},
	{Code: PrivRecordWrite, Name: "Write Daily Records"},
	{Code: PrivRecordDelete, Name: "Delete Daily Records"},
	{Code: PrivRecordClose, Name: "Close Day"},
	{Code: PrivLedgerView, Name: "View Credit Tabs"},
	{Code: PrivLedgerWrite, Name: "Write Credit Tabs"},
	{Code: PrivLedgerPay, Name: "Settle Credit Tabs"},
	{Code: PrivReportView, Name: "View Reports"},
	{Code: PrivReportExport, Name: "Export Reports"},
	{Code: PrivProductManage, Name: "Manage Menu"},
	{Code: PrivPosCheckout, Name: "POS Checkout"},
	{Code: PrivSyncRun, Name: "Run Sync"},
	{Code: PrivBackupView, Name: "Download Backup"},
	{Code: PrivBackupRestore, Name: "Restore Backup"},
	{Code: PrivUserManage, Name: "Manage Staff"},
}
