package domain

import (
	"errors"
	"fmt"
)

// ErrorClass drives the retry policy. Transient failures are retried with
// backoff, permanent failures abandon the task immediately, and store
// failures pause task dispatch until the store is reachable again.
type ErrorClass int

const (
	ClassTransient ErrorClass = iota
	ClassPermanent
	ClassStore
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassPermanent:
		return "permanent"
	case ClassStore:
		return "store"
	}
	return "unknown"
}

// FetchError means the page could not be reached (network, timeout, HTTP).
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means the collaborator could not produce a structured
// draft from fetched content. Treated as transient with capped retries:
// extraction output is nondeterministic and a later attempt may succeed.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.URL, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError means the draft violates a structural invariant.
// Never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid candidate: " + e.Reason }

// StoreError means the persistence layer is unavailable. Not a per-task
// fault: the coordinator halts dispatch and pings the store instead.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store unavailable: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Classify maps an error to its class for the retry policy.
func Classify(err error) ErrorClass {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ClassPermanent
	}
	var se *StoreError
	if errors.As(err, &se) {
		return ClassStore
	}
	return ClassTransient
}
