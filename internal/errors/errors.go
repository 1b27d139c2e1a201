package errors

import (
	"errors"
)

// Build-time query errors - raised by the fluent builder before any snapshot is opened
var (
	// ErrUnsupportedFilter is returned when a Where expression is not a
	// conditional, conjunction or disjunction (e.g. a bare path or constant).
	ErrUnsupportedFilter = errors.New("expression is not usable as a filter")

	// ErrInvalidIncludeKind is returned when an Include expression is not a
	// cross-reference path.
	ErrInvalidIncludeKind = errors.New("invalid expression kind for include")

	// ErrInvalidLimit is returned when Limit receives a non-positive value.
	ErrInvalidLimit = errors.New("limit must be a positive integer")

	// ErrInvalidOffset is returned when Offset receives a negative value.
	ErrInvalidOffset = errors.New("offset must not be negative")
)

// Execution-time query errors
var (
	// ErrNoElements is returned by Single and First when the result set is empty.
	ErrNoElements = errors.New("sequence contains no elements")

	// ErrMoreThanOne is returned by Single and SingleOrDefault when the
	// result set holds more than one element.
	ErrMoreThanOne = errors.New("sequence contains more than one element")

	// ErrTransactionAborted is returned when a safepoint observes an
	// externally aborted transaction mid enumeration.
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrSnapshotReleased is returned when an iterator is pulled after its
	// snapshot has been released.
	ErrSnapshotReleased = errors.New("snapshot already released")
)

// Engine errors
var (
	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrDocExists is returned when inserting a document whose primary key
	// already exists.
	ErrDocExists = errors.New("document already exists")

	// ErrDocNotFound is returned when updating/deleting a non-existent document.
	ErrDocNotFound = errors.New("document not found")

	// ErrMissingID is returned when a document has no _id field.
	ErrMissingID = errors.New("document is missing _id field")

	// ErrIndexNotFound is returned when a strategy names an unknown index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexExists is returned when creating an index that already exists.
	ErrIndexExists = errors.New("index already exists")

	// ErrInvalidLocation is returned when a data location does not resolve
	// to a stored record.
	ErrInvalidLocation = errors.New("invalid data location")

	// ErrPoolStopped is returned when the maintenance pool is shut down.
	ErrPoolStopped = errors.New("maintenance pool is stopped")
)
