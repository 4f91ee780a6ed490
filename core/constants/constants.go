package constants

// Context keys
const (
	ContextTokenData = "token_data"
)

// Database connection defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Queue names. Delivery jobs run on the reminders queue; the default queue
// carries housekeeping tasks such as the periodic reconciler.
const (
	QueueReminders = "reminders"
	QueueDefault   = "default"
)

// Reminder defaults. Offset and debounce are configurable (see core/config);
// these are the fallback values.
const (
	DefaultTimeOffsetMinutes = 15
	DefaultDebounceMinutes   = 5
	DefaultLookaheadHours    = 24
	DefaultReconcileMinutes  = 5

	// Delivery jobs retry a bounded number of times; after exhaustion the
	// reminder row is marked failed and never re-attempted.
	DeliveryMaxRetry = 3
)
