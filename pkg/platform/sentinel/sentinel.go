// Package sentinel holds infrastructure facts that stores return (optionally
// wrapped) and services translate into domain errors:
//
//   - ErrNotFound: the key or record does not exist
//   - ErrUnavailable: the backing store could not be reached
package sentinel

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
