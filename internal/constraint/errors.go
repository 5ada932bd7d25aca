package constraint

import (
	"errors"
	"fmt"
)

var ErrEvaluationFailed = errors.New("failed to evaluate constraint")

type CompilationError struct {
	Expression string
	Cause      error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile constraint '%s': %v", e.Expression, e.Cause)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate constraint '%s': %v", e.Expression, e.Cause)
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluationFailed
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}
