package errors

import "errors"

// ErrorCategory groups errors by where in the query lifecycle they arise.
type ErrorCategory int

const (
	ErrorBuild       ErrorCategory = iota // Fluent-call validation, before any I/O
	ErrorCardinality                      // Single/First cardinality violations
	ErrorAborted                          // Transaction aborted or context cancelled
	ErrorEngine                           // Engine/storage/index failures
	ErrorUnknown                          // Anything else (collaborator failures pass through)
)

// Classify determines the lifecycle category of an error.
func Classify(err error) ErrorCategory {
	if err == nil {
		return ErrorUnknown
	}

	switch {
	case errors.Is(err, ErrUnsupportedFilter),
		errors.Is(err, ErrInvalidIncludeKind),
		errors.Is(err, ErrInvalidLimit),
		errors.Is(err, ErrInvalidOffset):
		return ErrorBuild
	case errors.Is(err, ErrNoElements), errors.Is(err, ErrMoreThanOne):
		return ErrorCardinality
	case errors.Is(err, ErrTransactionAborted):
		return ErrorAborted
	case errors.Is(err, ErrEngineClosed),
		errors.Is(err, ErrDocExists),
		errors.Is(err, ErrDocNotFound),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrIndexNotFound),
		errors.Is(err, ErrIndexExists),
		errors.Is(err, ErrInvalidLocation):
		return ErrorEngine
	}

	return ErrorUnknown
}

// IsBuildTime reports whether the error was raised by fluent-call
// validation rather than execution.
func IsBuildTime(err error) bool {
	return Classify(err) == ErrorBuild
}
