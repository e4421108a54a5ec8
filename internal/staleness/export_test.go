package staleness

import "time"

// SetClock replaces the clock used for watermark decisions.
func (it *Detector) SetClock(now func() time.Time) { it.now = now }
