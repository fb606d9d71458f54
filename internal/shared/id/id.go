// Package id provides ULID-based identifiers for the host.
//
// IDs are prefixed by kind (circ_*, req_*) so they read well in logs, and
// the ULID part keeps them sortable by creation time.
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidID reports a malformed or wrongly prefixed ID
var ErrInvalidID = errors.New("invalid id")

// CircuitID identifies a server-side circuit
type CircuitID string

// RequestID identifies an API request
type RequestID string

const (
	CircuitPrefix = "circ"
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographic entropy
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewCircuitID generates a new circuit ID
func NewCircuitID() CircuitID {
	return CircuitID(Default().GenerateWithPrefix(CircuitPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id CircuitID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }

// ParseCircuitID validates a client-supplied circuit ID
func ParseCircuitID(s string) (CircuitID, error) {
	if err := validate(s, CircuitPrefix); err != nil {
		return "", err
	}
	return CircuitID(s), nil
}

// Timestamp extracts the creation time from a prefixed or bare ULID
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return ulid.Time(parsed.Time()), nil
}

func validate(s, prefix string) error {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return fmt.Errorf("%w: %q lacks prefix %s_", ErrInvalidID, s, prefix)
	}
	if _, err := ulid.ParseStrict(rest); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return nil
}
