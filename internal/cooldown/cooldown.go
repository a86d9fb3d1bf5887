// Package cooldown debounces repeated actions by enforcing a minimum
// interval between fires of the same action identity.
package cooldown

import (
	"sync"
	"time"
)

// DefaultWindow is the cooldown used when none is configured.
const DefaultWindow = 1000 * time.Millisecond

// Debouncer tracks the last fire time per action key. Keys are independent:
// firing one never delays another.
type Debouncer[K comparable] struct {
	window    time.Duration
	lastFired map[K]time.Time
	mu        sync.Mutex
}

// New creates a Debouncer with the given cooldown window.
// Values less than or equal to 0 fall back to DefaultWindow.
func New[K comparable](window time.Duration) *Debouncer[K] {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer[K]{
		window:    window,
		lastFired: make(map[K]time.Time),
	}
}

// Window returns the configured cooldown.
func (d *Debouncer[K]) Window() time.Duration {
	return d.window
}

// MayFire reports whether key may fire at now: either it never fired, or
// strictly more than the window has elapsed since it last did.
func (d *Debouncer[K]) MayFire(key K, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mayFireLocked(key, now)
}

// MarkFired records that key fired at now.
func (d *Debouncer[K]) MarkFired(key K, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastFired[key] = now
}

// TryFire checks and records in one step. It returns true and records the
// fire when MayFire would have returned true.
func (d *Debouncer[K]) TryFire(key K, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.mayFireLocked(key, now) {
		return false
	}
	d.lastFired[key] = now
	return true
}

func (d *Debouncer[K]) mayFireLocked(key K, now time.Time) bool {
	last, ok := d.lastFired[key]
	if !ok {
		return true
	}
	return now.Sub(last) > d.window
}

// Compact drops entries whose cooldown has already elapsed at now and returns
// how many were removed. An expired entry and a missing one both allow a
// fire, so compaction never changes MayFire results.
func (d *Debouncer[K]) Compact(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, last := range d.lastFired {
		if now.Sub(last) > d.window {
			delete(d.lastFired, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (d *Debouncer[K]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lastFired)
}

// Reset forgets every recorded fire.
func (d *Debouncer[K]) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastFired = make(map[K]time.Time)
}
