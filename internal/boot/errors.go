package boot

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted  = errors.New("boot already started")
	ErrInvalidManifest = errors.New("invalid boot manifest")
)

// StartError reports a fatal failure before the application runs
type StartError struct {
	Reason string
	Err    error
}

func (e *StartError) Error() string {
	if e.Err == nil {
		return "boot failed: " + e.Reason
	}
	return fmt.Sprintf("boot failed: %s: %v", e.Reason, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ResourceLoadError reports a stylesheet or script that failed to load
type ResourceLoadError struct {
	URL string
	Err error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("failed to load resource %s: %v", e.URL, e.Err)
}

func (e *ResourceLoadError) Unwrap() error { return e.Err }
