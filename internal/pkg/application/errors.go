package application

import "errors"

var (
	// ErrNetwork is returned when a request to the api could not be completed.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned when a response body does not match the expected schema.
	ErrDecode = errors.New("decode error")
	// ErrTimeout is returned when a fetch cycle does not complete within its deadline.
	ErrTimeout = errors.New("timeout")
)
