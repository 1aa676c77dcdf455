package handlers

const (
	maxBodyBytes = 64 << 10

	oauthStateCookie = "oauth_state"

	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests"
)
