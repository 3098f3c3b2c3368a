package models

import "errors"

// Error taxonomy shared by the service layer. Handlers map these onto HTTP
// status codes with errors.Is; anything unmatched is treated as internal.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("access denied")
	ErrQuotaExceeded    = errors.New("interview quota exceeded")
	ErrSessionNotActive = errors.New("session is not in progress")
	ErrInvalidVoice     = errors.New("voice is not available for this user")
)

// ErrorResponse is the JSON error body returned to clients.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Message
}
