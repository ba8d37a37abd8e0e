// Package clock supplies the time source that stamps backup file names.
package clock

import (
	"strings"
	"sync"
	"time"
)

// StampLayout is the timestamp embedded in backup file names. Stamps sort
// lexically in chronological order.
const StampLayout = "20060102_150405"

type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func NewSystem() Clock {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

// Stamp renders the current time of c with StampLayout.
func Stamp(c Clock) string {
	return c.Now().Format(StampLayout)
}

// ParseStamp extracts the time from a base name such as
// backup_20261017_093005.json. The prefix is everything before the stamp.
func ParseStamp(base, prefix string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(base, prefix)
	if !ok || len(rest) < len(StampLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(StampLayout, rest[:len(StampLayout)], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Manual only moves when told to. Safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
