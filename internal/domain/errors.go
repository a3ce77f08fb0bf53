package domain

import "errors"

// Failure taxonomy surfaced to clients as structured error events.
// Everything else is an internal fault and never crashes the process.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrMeetingEnded       = errors.New("meeting has ended")
	ErrMeetingFull        = errors.New("meeting is full")
	ErrNotAuthorized      = errors.New("not authorized")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrorCode maps a domain error to its wire code. Unknown errors are
// reported as service_unavailable rather than leaking internals.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, ErrMeetingNotFound):
		return "meeting_not_found"
	case errors.Is(err, ErrMeetingEnded):
		return "meeting_ended"
	case errors.Is(err, ErrMeetingFull):
		return "meeting_full"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	default:
		return "service_unavailable"
	}
}
