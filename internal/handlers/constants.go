package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody   = "Invalid request body"
	ErrMsgInvalidApplicationID = "Invalid application ID"
	ErrMsgInvalidScholarshipID = "Invalid scholarship ID"
	ErrMsgInvalidUserID        = "Invalid user ID"
	ErrMsgUnauthorized         = "Unauthorized"
	ErrMsgInternal             = "Internal server error"
)

// API path constants
const (
	AuthAPIBasePath = "/api/v1/auth"
)
