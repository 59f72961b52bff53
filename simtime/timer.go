// Package simtime provides the simulator's wall-clock timer primitive.
//
// The simulator never fabricates simulated time: every cycle and every
// I/O wait is driven by actually blocking on the real clock, per the
// kind of device the original reference driver used (accessTimer/runTimer).
package simtime

import (
	"fmt"
	"time"
)

// Timer tracks elapsed wall-clock time from a zero point and formats it
// the way the simulation log expects: "HH:MM:SS.mmmmmm".
//
// A Timer is not safe for concurrent use; the simulation driver owns the
// only instance and calls it from its single goroutine.
type Timer struct {
	start   time.Time
	stopped bool
	stopAt  time.Time
}

// New returns a Timer already zeroed at the current instant.
func New() *Timer {
	t := &Timer{}
	t.Zero()
	return t
}

// Zero resets the timer's reference point to now.
func (t *Timer) Zero() {
	t.start = time.Now()
	t.stopped = false
}

// Lap returns the elapsed time since Zero (or from Zero up to Stop, if
// stopped) as
// "HH:MM:SS.mmmmmm".
func (t *Timer) Lap() string {
	var elapsed time.Duration
	if t.stopped {
		elapsed = t.stopAt.Sub(t.start)
	} else {
		elapsed = time.Since(t.start)
	}
	return formatElapsed(elapsed)
}

// Stop freezes the timer so subsequent Lap calls keep returning the same
// value.
func (t *Timer) Stop() string {
	if !t.stopped {
		t.stopAt = time.Now()
		t.stopped = true
	}
	return t.Lap()
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)
	d -= time.Duration(seconds) * time.Second
	micros := int(d / time.Microsecond)
	return fmt.Sprintf("%02d:%02d:%02d.%06d", hours, minutes, seconds, micros)
}

// Sleep blocks the calling goroutine (via time.Sleep, not a busy-wait
// loop) for the given number of
// simulated milliseconds, translated 1:1 to real time.
func Sleep(ms int) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
