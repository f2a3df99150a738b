package task

import "errors"

// Domain errors for the task package.
//
//	if errors.Is(err, task.ErrTaskNotFound) {
//	    // handle not found case
//	}
var (
	// ErrTaskNotFound is returned when a task index is not configured.
	ErrTaskNotFound = errors.New("task: not found")

	// ErrValueIndex is returned when a value index is out of range.
	ErrValueIndex = errors.New("task: value index out of range")

	// ErrUnknownValueKind is returned when a configured value kind name is not recognised.
	ErrUnknownValueKind = errors.New("task: unknown value kind")

	// ErrInvalidTask is returned when a task definition is inconsistent.
	ErrInvalidTask = errors.New("task: invalid")
)
