package sensors

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotActive is returned when an operation requires the sensor to be
	// enabled for polling and it is not.
	ErrNotActive = errors.New("sensor is not being polled")
	// ErrInvalidDelay is returned for delays that are not positive finite
	// numbers.
	ErrInvalidDelay = errors.New("delay must be a positive number of seconds")
)

// A Registry tracks which sensors are currently enabled for polling and the
// delay between captures for each. It is safe for concurrent use; the
// interactive shell mutates it while capture loops read from it.
type Registry struct {
	mu     sync.Mutex
	active map[Kind]time.Duration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: map[Kind]time.Duration{}}
}

// Enable adds a sensor to the polling set with the given delay. Enabling an
// already active sensor is a no-op and does not reset its delay.
func (r *Registry) Enable(kind Kind, delay time.Duration) error {
	if _, err := KindFromName(string(kind)); err != nil {
		return err
	}
	if delay <= 0 {
		return ErrInvalidDelay
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[kind]; ok {
		return nil
	}
	r.active[kind] = delay
	return nil
}

// Disable removes a sensor from the polling set. Disabling an inactive
// sensor is a no-op.
func (r *Registry) Disable(kind Kind) error {
	if _, err := KindFromName(string(kind)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, kind)
	return nil
}

// ChangeDelay updates the polling delay for an active sensor. The new delay
// takes effect when the sensor is next rescheduled, not on the cycle already
// armed.
func (r *Registry) ChangeDelay(kind Kind, delay time.Duration) error {
	if delay <= 0 {
		return ErrInvalidDelay
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[kind]; !ok {
		return errors.Wrapf(ErrNotActive, "%s", kind)
	}
	r.active[kind] = delay
	return nil
}

// IsActive reports whether the sensor is currently enabled for polling.
func (r *Registry) IsActive(kind Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[kind]
	return ok
}

// Delay returns the configured delay for an active sensor.
func (r *Registry) Delay(kind Kind) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.active[kind]
	return d, ok
}

// Active returns the currently enabled sensors in sorted order.
func (r *Registry) Active() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, 0, len(r.active))
	for k := range r.active {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
