package batch

import "errors"

var (
	// ErrTaskNotFound is returned for ids that never existed or were wiped by Clear.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSelectionRequired is returned by Intake before a company and category are chosen.
	ErrSelectionRequired = errors.New("company and policy category must be selected before intake")
	// ErrNoFiles is returned by Intake when called without files.
	ErrNoFiles = errors.New("no files to intake")
	// ErrStaleClaim is returned when a claim outlived the batch it was issued for.
	ErrStaleClaim = errors.New("stale claim: batch was cleared")
	// ErrInvalidTransition is returned when a claim no longer owns a processing task.
	ErrInvalidTransition = errors.New("invalid task transition")
)
