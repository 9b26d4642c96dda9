package audit

import "errors"

// ErrMissingField is returned by Create when a required field is empty.
var ErrMissingField = errors.New("audit: missing required field")
