package receipt

import "fmt"

// FailureKind classifies where in the ingestion pipeline a receipt was lost.
type FailureKind string

const (
	// FetchFailure means the object could not be downloaded from the blob store.
	FetchFailure FailureKind = "fetch"
	// ExtractionFailure means text detection failed or found no text.
	ExtractionFailure FailureKind = "extraction"
	// GenerationFailure means the structured-extraction response was missing or unparsable.
	GenerationFailure FailureKind = "generation"
	// ValidationFailure means a mandatory receipt field was absent.
	ValidationFailure FailureKind = "validation"
	// StoreFailure means the receipt could not be persisted.
	StoreFailure FailureKind = "store"
)

// Failure is a pipeline error tagged with the stage that produced it.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}
