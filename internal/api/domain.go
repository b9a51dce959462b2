package api

import "errors"

// Error taxonomy shared by the store, service and handler layers. All are
// terminal and non-retriable; handlers map them to status codes.
var (
	ErrNotFound         = errors.New("requested item not found")
	ErrConflict         = errors.New("item already exists or conflict")
	ErrUnauthenticated  = errors.New("authentication required or invalid credentials")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
