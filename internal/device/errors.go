package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrLoad) {
//	    // catalogue is unavailable until restart
//	}
//
// A missing device is not an error: FindByFullName reports it through its
// boolean result.
var (
	// ErrLoad is returned when the device source is missing, unreadable or
	// not a JSON array of device objects. Once returned it is returned by
	// every subsequent query; the store never retries.
	ErrLoad = errors.New("device: catalogue load failed")

	// ErrNoSource is returned when a store is created without a source.
	ErrNoSource = errors.New("device: no source configured")
)
