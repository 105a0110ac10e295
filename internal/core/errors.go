package core

// errors.go defines the engine's failure taxonomy and its mapping to
// user-facing messages.
//
// Categories:
//   - configuration errors (unknown source / query kind): programmer error,
//     generic user message, full detail logged server-side
//   - database connectivity: retryable by the user, never retried by the engine
//   - query execution: not retryable, indicates a template/parameter mismatch
//   - session errors: wrong stage, concurrent submission, expired session
//
// Nothing below the orchestrator surfaces raw driver errors or SQL to the UI
// boundary; handlers map errors through MapError before responding.

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSource indicates a data source key with no registration.
	ErrUnknownSource = errors.New("unknown data source")

	// ErrUnknownQueryKind indicates a query kind the catalog has no template for.
	ErrUnknownQueryKind = errors.New("unknown query kind")

	// ErrDatabaseUnavailable wraps connectivity-class failures (dial, reset,
	// timeout). The user may retry; the engine does not.
	ErrDatabaseUnavailable = errors.New("database unavailable")

	// ErrQueryFailed wraps execution-class failures (malformed SQL, parameter
	// mismatch). Retrying without changing the catalog will not help.
	ErrQueryFailed = errors.New("query failed")

	// ErrSessionNotFound indicates an unknown or expired export session.
	ErrSessionNotFound = errors.New("export session not found")

	// ErrSessionBusy indicates a submission while another is in flight for
	// the same session.
	ErrSessionBusy = errors.New("export already in progress")

	// ErrInvalidStage indicates an action that is not legal in the session's
	// current stage.
	ErrInvalidStage = errors.New("action not allowed in current stage")
)

// UserMessage provides user-facing error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// userMessages maps error categories to their user-facing representation.
// Order matters: the first matching sentinel wins.
var userMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrUnknownSource, UserMessage{
		Message: "The requested report is not configured",
		Action:  "Pick a report from the catalog listing",
		Code:    "CFG001",
	}},
	{ErrUnknownQueryKind, UserMessage{
		Message: "The requested report is not configured",
		Action:  "Contact support if the problem persists",
		Code:    "CFG002",
	}},
	{ErrDatabaseUnavailable, UserMessage{
		Message: "Unable to reach the reporting database",
		Action:  "Please try again in a few moments",
		Code:    "DB001",
	}},
	{ErrQueryFailed, UserMessage{
		Message: "The report query could not be executed",
		Action:  "Contact support; retrying will not help",
		Code:    "QRY001",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "Export session not found",
		Action:  "The session may have expired. Please start a new export",
		Code:    "EXP001",
	}},
	{ErrSessionBusy, UserMessage{
		Message: "An export is already running for this session",
		Action:  "Wait for it to finish before submitting again",
		Code:    "EXP002",
	}},
	{ErrInvalidStage, UserMessage{
		Message: "That action is not available right now",
		Action:  "Reset the session to start a new export",
		Code:    "EXP003",
	}},
}

// defaultMessage is the fallback for unexpected errors. Support staff should
// check application logs for the original technical error on ERR000 reports.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-facing message. The original
// error text never reaches the user; callers log it separately.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, um := range userMessages {
		if errors.Is(err, um.target) {
			return um.msg
		}
	}

	return defaultMessage
}

// configErr wraps a configuration mistake with its detail for logging.
func configErr(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
