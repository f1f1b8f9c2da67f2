package framework

import (
	"strconv"
	"strings"
)

// TaskError is the failure of one named Runnable.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return e.Task + ": " + e.Err.Error()
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Errors is the set of failures collected by Runner.Wait.
// errors.Is and errors.As look through every element.
type Errors []error

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(len(e)))
	sb.WriteString(" tasks failed")
	for _, err := range e {
		sb.WriteString("\n\t")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e Errors) Unwrap() []error {
	return e
}

// Err returns nil for an empty set.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
