package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldUserAgent  = "user_agent"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldRecordID   = "record_id"
	FieldRecordType = "record_type"
	FieldAmount     = "amount"
	FieldDate       = "date"
	FieldBase       = "base_currency"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp   = "app"
	ComponentEntry = "entry"
)
