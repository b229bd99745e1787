package apperrors

import "errors"

// Standard application errors
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when the input provided by the caller is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure is returned when an interaction with a node or explorer fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrDecode is returned when stored or received data cannot be decoded.
	ErrDecode = errors.New("decode failed")

	// ErrSwitchInProgress is returned when a network switch is requested while another is running.
	ErrSwitchInProgress = errors.New("network switch already in progress")

	// ErrStaleEpoch is returned when a background result belongs to a superseded network.
	ErrStaleEpoch = errors.New("result belongs to a superseded network")

	// ErrNetworkMismatch is returned when a node serves a different network than the one selected.
	ErrNetworkMismatch = errors.New("node network id does not match")
)
