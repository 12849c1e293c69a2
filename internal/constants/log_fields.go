package constants

// Log field name constants
const (
	LOG_REQUEST_ID = "request_id"
	LOG_METHOD     = "method"
	LOG_URI        = "uri"
	LOG_USER       = "remote_user"
	LOG_REMOTE_ADR = "remote_addr"
	LOG_RESP_CODE  = "code"
	LOG_ERROR      = "error"
	LOG_RESP_BODY  = "body"
	LOG_REFERER    = "referer"
	LOG_USER_AGENT = "user_agent"
	LOG_ELAPSED    = "elapsed"
)
