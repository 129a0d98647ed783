package birdsy

import (
	"errors"
	"fmt"

	bhttp "birdsync/http"
)

// Sentinel errors for API operations.
var (
	// ErrAuthFailed indicates the credentials could not be exchanged for a token.
	ErrAuthFailed = errors.New("birdsy: authentication failed")
	// ErrNotFound indicates the service answered 404.
	ErrNotFound = errors.New("birdsy: not found")
	// ErrPageFailed indicates a listing page kept failing after every attempt.
	ErrPageFailed = errors.New("birdsy: listing page failed")
)

// APIError wraps an error with the operation that produced it.
//
//	var apiErr *birdsy.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s failed: %v\n", apiErr.Op, apiErr.Err)
//	}
type APIError struct {
	// Op names the call ("auth", "days", "episodes", "delete", "fetch").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("birdsy: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// wrap attaches op to err and marks 404 responses with ErrNotFound.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if bhttp.IsNotFound(err) {
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return &APIError{Op: op, Err: err}
}
