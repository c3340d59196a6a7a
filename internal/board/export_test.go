package board

import "time"

// SetNow pins the clock used for new-item dates and generated ids.
func SetNow(f func() time.Time) (restore func()) {
	prev := now
	now = f
	return func() { now = prev }
}
