package queue

import "errors"

var (
	// ErrQueueClosed is returned when a task is attached after Close.
	ErrQueueClosed = errors.New("write queue closed")

	// ErrTaskPanicked is returned when a task panics instead of returning.
	ErrTaskPanicked = errors.New("write queue task panicked")
)
