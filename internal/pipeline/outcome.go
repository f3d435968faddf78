package pipeline

import "github.com/couchcryptid/quake-match/internal/domain"

// Outcome is the terminal state of processing one notification.
type Outcome uint8

const (
	OutcomeSuccess Outcome = iota
	OutcomeDiscarded
	OutcomeValidationError
	OutcomeStoreError
	OutcomeMatchError
	OutcomeConnectionError
	// OutcomeDuplicateEvent is a store failure on an already recorded event id
	// after which matching still ran to completion.
	OutcomeDuplicateEvent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeValidationError:
		return "validation_error"
	case OutcomeStoreError:
		return "store_error"
	case OutcomeMatchError:
		return "match_error"
	case OutcomeConnectionError:
		return "connection_error"
	case OutcomeDuplicateEvent:
		return "duplicate_event"
	default:
		return "unknown"
	}
}

// Process exit codes. Configuration and connection failures always exit
// non-zero; the other per-outcome codes apply only in strict mode.
const (
	ExitOK              = 0
	ExitConfiguration   = 2
	ExitConnection      = 3
	ExitDiscarded       = 10
	ExitValidationError = 11
	ExitStoreError      = 12
	ExitMatchError      = 13
	ExitDuplicateEvent  = 14
)

// ExitCode maps the outcome to a process exit code. Without strict, only an
// unreachable database exits non-zero.
func (o Outcome) ExitCode(strict bool) int {
	if o == OutcomeConnectionError {
		return ExitConnection
	}
	if !strict {
		return ExitOK
	}
	switch o {
	case OutcomeDiscarded:
		return ExitDiscarded
	case OutcomeValidationError:
		return ExitValidationError
	case OutcomeStoreError:
		return ExitStoreError
	case OutcomeMatchError:
		return ExitMatchError
	case OutcomeDuplicateEvent:
		return ExitDuplicateEvent
	default:
		return ExitOK
	}
}

// StartupExitCode maps a failure raised before any notification is processed.
func StartupExitCode(err error) int {
	if domain.KindOf(err) == domain.KindConnection {
		return ExitConnection
	}
	return ExitConfiguration
}

// Result reports what happened to one notification.
type Result struct {
	Outcome Outcome
	EventID string
	Match   domain.MatchResult
	// Duplicate is set when the event row already existed; Err then holds
	// the store error even if matching succeeded.
	Duplicate bool
	Err       error
}
