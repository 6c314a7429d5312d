package research

import (
	"errors"
	"fmt"
)

var ErrEmptyTopic = errors.New("topic is required")

// StageError reports the stage at which a run aborted.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("research stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
