package executor

import (
	"fmt"
	"time"
)

// Status is the outcome of one address.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the outcome of one address.
type Result struct {
	// Index is the position of the address in the source file.
	Index int

	// Address is the token as read from the source file.
	Address string

	// Status is applied, skipped or failed.
	Status Status

	// Command is the router command, empty when none was built.
	Command string

	// Reason explains a skip.
	Reason string

	// Error is the router's error output, or the local error when the
	// command could not be sent.
	Error string

	// Duration is the time spent executing the command.
	Duration time.Duration
}

// Applied returns a result for an address the router accepted.
func Applied(index int, address, command string) *Result {
	return &Result{Index: index, Address: address, Status: StatusApplied, Command: command}
}

// Skipped returns a result for an address that was not sent.
func Skipped(index int, address, reason string) *Result {
	return &Result{Index: index, Address: address, Status: StatusSkipped, Reason: reason}
}

// Failed returns a result for an address the router rejected.
func Failed(index int, address, command, remoteErr string) *Result {
	return &Result{Index: index, Address: address, Status: StatusFailed, Command: command, Error: remoteErr}
}

// Message returns the detail shown next to the address.
func (r *Result) Message() string {
	switch r.Status {
	case StatusSkipped:
		return r.Reason
	case StatusFailed:
		return r.Error
	default:
		return r.Command
	}
}

// OutcomeKind is the terminal state of a job.
type OutcomeKind int

const (
	// Pending means the job has not finished. It is the zero value so an
	// unset outcome never reads as success.
	Pending OutcomeKind = iota
	// Succeeded means the session connected and every address was processed.
	Succeeded
	// ConnectionFailed means the session could not be opened.
	ConnectionFailed
	// FileReadFailed means the address file could not be read.
	FileReadFailed
	// InvalidTimeout means the job timeout failed validation.
	InvalidTimeout
	// InvalidJob means the job could not be started, e.g. an unsafe list name.
	InvalidJob
	// SessionLost means the connection broke while executing.
	SessionLost
	// Cancelled means the context was cancelled before the last address.
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case ConnectionFailed:
		return "connection failed"
	case FileReadFailed:
		return "file read failed"
	case InvalidTimeout:
		return "invalid timeout"
	case InvalidJob:
		return "invalid job"
	case SessionLost:
		return "session lost"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// ConnectionFailure says why a session could not be opened.
type ConnectionFailure int

const (
	FailureNone ConnectionFailure = iota
	FailureAuthentication
	FailureTransport
	FailureUnknown
)

func (f ConnectionFailure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureAuthentication:
		return "authentication"
	case FailureTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a job.
type Outcome struct {
	Kind OutcomeKind

	// Connection is set when Kind is ConnectionFailed.
	Connection ConnectionFailure

	// Err is the cause of any outcome other than Succeeded.
	Err error
}

// Stats holds execution statistics.
type Stats struct {
	Total     int
	Applied   int
	Skipped   int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns the total execution time.
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// GetApplied returns the Applied count (implements output.Stats).
func (s *Stats) GetApplied() int { return s.Applied }

// GetSkipped returns the Skipped count (implements output.Stats).
func (s *Stats) GetSkipped() int { return s.Skipped }

// GetFailed returns the Failed count (implements output.Stats).
func (s *Stats) GetFailed() int { return s.Failed }

// GetTotal returns the Total count (implements output.Stats).
func (s *Stats) GetTotal() int { return s.Total }

// GetDuration returns the duration (implements output.Stats).
func (s *Stats) GetDuration() time.Duration { return s.Duration() }

func (s *Stats) record(r *Result) {
	switch r.Status {
	case StatusApplied:
		s.Applied++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// RunResult holds the result of a job run.
type RunResult struct {
	// Success is true if the session connected and the loop completed,
	// regardless of individual address failures.
	Success bool

	// Outcome is the terminal outcome of the job.
	Outcome Outcome

	// Results holds one entry per processed address, in order.
	Results []*Result

	// Stats holds execution statistics.
	Stats *Stats
}
