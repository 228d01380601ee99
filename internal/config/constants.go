package config

import "time"

// Application info
const (
	AppName    = "InventoryPro"
	AppVersion = "1.2.0"
)

// Export defaults shared by the web server and the CLI
const (
	TimestampPlaceholder = "{timestamp}"
	TimestampLayout      = "2006-01-02"
	DefaultToastTTL      = 5 * time.Second
	MaxRecordsPerExport  = 100_000
)

// Notification messages shown to the user
const (
	MsgExportSuccessful = "Export successful!"
	MsgTableNotFound    = "Table not found"
	MsgNoData           = "No data to export"
	MsgExportFailed     = "Export failed"
	MsgFetchFailed      = "Failed to fetch data"
	MsgFieldRequired    = "This field is required"
)
