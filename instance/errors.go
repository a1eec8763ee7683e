package instance

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrInvalidTargetFormat is the error returned if the target format doesn't match the expected format
	// required by the resolver
	ErrInvalidTargetFormat = errors.New("invalid target format")
	// ErrNoInstanceFound is the error returned if a lookup was unable to find a running instance
	ErrNoInstanceFound = errors.New("no instances returned from lookup")
)

// NotFoundError is returned when no running instance matches the requested instance ID.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("running instance %s not found", e.ID)
}

// Is allows errors.Is(err, ErrNoInstanceFound) to match a NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNoInstanceFound
}

// ProviderError wraps a failure reported by, or while talking to, the EC2 API.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return fmt.Sprintf("%s: %s: %s", e.Op, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// the EC2 API rejects unknown or malformed instance IDs outright, rather than returning an empty result
func isNotFoundCode(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "InvalidInstanceID.NotFound", "InvalidInstanceID.Malformed":
		return true
	}
	return false
}
