package pipeline

import "fmt"

// Kind names the stage a pair (or document) failed in. The coordinator is
// the only place failures are classified; stages just return errors.
type Kind string

const (
	KindExtraction Kind = "extraction"
	KindScoring    Kind = "scoring"
	KindEvaluation Kind = "evaluation"
	KindParse      Kind = "parse"
)

// StageError wraps a stage failure with its kind. It never escapes the
// batch: the coordinator converts it to a skip-and-log outcome.
type StageError struct {
	Kind Kind
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
