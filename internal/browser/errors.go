package browser

import (
	"errors"
	"fmt"
)

var (
	ErrLoginFormNotFound  = errors.New("login form not found")
	ErrManualChallenge    = errors.New("manual challenge requires operator confirmation")
	ErrInvalidProfileURL  = errors.New("invalid profile url")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrEmptyHarvest       = errors.New("harvested page text is empty")
)

// ErrWaitTimeout is returned by Session.WaitFor when the bound elapses.
var ErrWaitTimeout = errors.New("wait timed out")

// ExtractionError is any failure of a run, tagged with the state it
// happened in. No partial text accompanies it.
type ExtractionError struct {
	Stage State
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StageOf returns the state a run failed in, or "" for other errors.
func StageOf(err error) State {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Stage
	}
	return ""
}
