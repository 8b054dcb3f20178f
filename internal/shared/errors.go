package shared

import "errors"

// ErrStorageUnavailable wraps failures of the browser storage backend.
var ErrStorageUnavailable = errors.New("browser storage unavailable")
