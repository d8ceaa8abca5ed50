// Package rates implements fixed-window rate limiting over millisecond timestamps.
package rates

// Allow counts one event at nowMs against a window that started at startMs. It returns
// the updated window, whether the event is admitted, and how long until the window
// resets when it is not.
func Allow(nowMs int64, startMs int64, count int, windowMs int64, max int) (newStart int64, newCount int, ok bool, retryAfterMs int64) {
	newStart = startMs
	newCount = count
	if windowMs <= 0 || max <= 0 {
		return newStart, newCount, true, 0
	}

	if nowMs-newStart >= windowMs || nowMs < newStart {
		newStart = nowMs
		newCount = 0
	}
	newCount++
	if newCount <= max {
		return newStart, newCount, true, 0
	}
	return newStart, newCount, false, (newStart + windowMs) - nowMs
}

// Window is a stateful Allow for a single caller. The zero value admits everything.
type Window struct {
	WindowMs int64
	Max      int

	start int64
	count int
}

func (w *Window) Allow(nowMs int64) (bool, int64) {
	var ok bool
	var retry int64
	w.start, w.count, ok, retry = Allow(nowMs, w.start, w.count, w.WindowMs, w.Max)
	return ok, retry
}
