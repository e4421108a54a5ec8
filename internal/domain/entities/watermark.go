package entities

import "time"

// Watermark is the last change token a remote repository reported for a
// group namespace, and when it was checked.
type Watermark struct {
	Repository string    `yaml:"repository"`
	Group      string    `yaml:"group"`
	Token      string    `yaml:"token"`
	CheckedAt  time.Time `yaml:"checked_at"`
}

// Due reports whether the watermark must be re-checked under the settings.
func (it Watermark) Due(settings StalenessSettings, now time.Time) bool {
	switch settings.Policy {
	case StalenessNever:
		return false
	case StalenessAlways:
		return true
	case StalenessInterval:
		return now.Sub(it.CheckedAt) >= settings.Interval
	default:
		return true
	}
}
