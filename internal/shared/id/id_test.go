package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()
	assert.NotEqual(t, gen.Generate(), gen.Generate())
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{CircuitPrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)
		require.True(t, strings.HasPrefix(id, prefix+"_"), id)
		assert.Len(t, strings.TrimPrefix(id, prefix+"_"), 26)
	}
}

func TestCircuitIDRoundTrip(t *testing.T) {
	circuit := NewCircuitID()

	parsed, err := ParseCircuitID(circuit.String())
	require.NoError(t, err)
	assert.Equal(t, circuit, parsed)

	created, err := Timestamp(circuit.String())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), created, 5*time.Second)
}

func TestParseCircuitIDInvalid(t *testing.T) {
	tests := []string{
		"",
		"circ_",
		"circ_not-a-ulid",
		string(NewRequestID()),
		"circ_" + strings.Repeat("Z", 26),
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCircuitID(input)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 8, 100

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := gen.GenerateWithPrefix(CircuitPrefix)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
