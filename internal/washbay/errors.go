package washbay

import "errors"

var (
	// ErrConflict is returned by Start while another wash is in flight.
	ErrConflict = errors.New("bay already in use")
	// ErrInvalidRequest is returned by Start for an extras combination the bay cannot serve.
	ErrInvalidRequest = errors.New("waxing requires hand drying")
)
