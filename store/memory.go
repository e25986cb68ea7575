package store

import (
	"context"
	"sync"

	"github.com/openobs/enclosure/sensors"
)

// Memory is an in-process Store used for tests and simulated runs.
type Memory struct {
	mu      sync.Mutex
	current map[string]sensors.Reading
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{current: map[string]sensors.Reading{}}
}

// InsertCurrent replaces the device's current reading.
func (m *Memory) InsertCurrent(ctx context.Context, device string, reading *sensors.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[device] = *reading
	return nil
}

// GetCurrent returns the device's current reading, or ErrNoReading.
func (m *Memory) GetCurrent(ctx context.Context, device string) (*sensors.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reading, ok := m.current[device]
	if !ok {
		return nil, ErrNoReading
	}
	return &reading, nil
}

// Close is a no-op.
func (m *Memory) Close(ctx context.Context) error {
	return nil
}
