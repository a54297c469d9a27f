package watcher

import "time"

// debouncer accepts an event only when nothing was accepted during the
// preceding window. Suppressed events do not move the reference point, so a
// continuous stream is accepted once per window rather than never.
type debouncer struct {
	window time.Duration
	last   time.Time
	set    bool
}

func (d *debouncer) accept(now time.Time) bool {
	if d.set && now.Sub(d.last) < d.window {
		return false
	}
	d.last, d.set = now, true
	return true
}
