package audithook

// Action constants for audit events.
const (
	// Stream actions
	ActionStreamCreated   = "stream.created"
	ActionStreamPaused    = "stream.paused"
	ActionStreamResumed   = "stream.resumed"
	ActionStreamCancelled = "stream.cancelled"
	ActionStreamWithdrew  = "stream.withdrew"
	ActionStreamCompleted = "stream.completed"

	// Settlement actions
	ActionTransferFailed = "transfer.failed"

	// Configuration actions
	ActionAdminUpdated = "admin.updated"
)

// Resource constants for audit events.
const (
	ResourceStream = "stream"
	ResourceConfig = "config"
)

// Category constants for audit events.
const (
	CategoryLifecycle  = "lifecycle"
	CategorySettlement = "settlement"
	CategoryAccess     = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
