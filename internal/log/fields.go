package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldChildID     = "child_id"
	FieldParentID    = "parent_id"
	FieldGrantID     = "grant_id"
	FieldSpendingID  = "spending_id"
	FieldGoalID      = "goal_id"
	FieldAmountCents = "amount_cents"
	FieldBalance     = "balance_cents"
	FieldSchedule    = "schedule"
	FieldCategory    = "category"
	FieldStoredIn    = "stored_in"
	FieldRecipient   = "recipient"
	FieldSent        = "sent"
	FieldFailed      = "failed"
	FieldProcessed   = "processed"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentJobs      = "jobs"
	ComponentProcessor = "allowance_processor"
	ComponentReports   = "reports"
	ComponentCache     = "cache"
	ComponentNotify    = "notify"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpProcess  = "process"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
