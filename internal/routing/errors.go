package routing

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyInitialized = errors.New("routing: coordinator cannot be re-initialized")
	ErrNotInitialized     = errors.New("routing: coordinator is not initialized")
	ErrInvalidBaseURI     = errors.New("routing: base URI must be non-empty and end with '/'")
	ErrInvalidPattern     = errors.New("routing: invalid route pattern")
	ErrNilTable           = errors.New("routing: route table is nil")
)

// URINotContainedError reports a location outside the application base URI.
type URINotContainedError struct {
	Location string
	BaseURI  string
}

func (e *URINotContainedError) Error() string {
	return fmt.Sprintf("the URI '%s' is not contained by the base URI '%s'", e.Location, e.BaseURI)
}
