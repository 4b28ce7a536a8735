package facerec

import (
	"errors"
	"fmt"
)

var (
	// ErrCameraUnavailable means the device could not be opened or produced no frame.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrNoFaceDetected means the detector returned zero regions.
	ErrNoFaceDetected = errors.New("no face detected")
	// ErrNoMatch means no enrolled user is within the verification threshold.
	ErrNoMatch = errors.New("no matching user")
	// ErrNoName means stdin closed before a name was entered.
	ErrNoName = errors.New("no name entered")
)

// StoreError wraps a failure from the enrollment store with the operation
// that was running.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
