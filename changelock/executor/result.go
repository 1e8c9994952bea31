package executor

import "github.com/juju/errors"

// Status tells apart the outcomes callers react to differently.
type Status int

const (
	StatusSuccess Status = iota + 1
	// StatusNotFound means the database object, or the row, the statement
	// refers to does not exist.
	StatusNotFound
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not found"
	case StatusFailure:
		return "failure"
	}
	return "unknown"
}

// Result is the outcome of running a statement.
type Result struct {
	Status       Status
	RowsAffected int64
	// Err is the underlying error for StatusNotFound and StatusFailure.
	Err error
}

func succeeded(rows int64) Result {
	return Result{Status: StatusSuccess, RowsAffected: rows}
}

func notFound(err error) Result {
	return Result{Status: StatusNotFound, Err: err}
}

func failed(err error) Result {
	if err == nil {
		err = errors.New("statement failed")
	}
	return Result{Status: StatusFailure, Err: err}
}

func (r Result) OK() bool { return r.Status == StatusSuccess }

func (r Result) NotFound() bool { return r.Status == StatusNotFound }

// Failure returns the error of a failed statement and nil otherwise.
func (r Result) Failure() error {
	if r.Status != StatusFailure {
		return nil
	}
	return r.Err
}
