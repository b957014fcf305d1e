// Package events derives an event's display status from its time bounds.
//
// Status is computed at read time rather than stored, so it can never drift
// from wall-clock time and no background job is needed to flip it at the
// boundaries. Only the manual override is persisted on the event row.
package events

import (
	"fmt"
	"math"
	"time"

	"github.com/wavedash/arena/backend/internal/models"
)

// overrideGracePeriod is how long after an event ends its status may still be
// overridden manually. Past it the event is considered archival.
const overrideGracePeriod = 24 * time.Hour

// ComputeAutomaticStatus derives the status from the time bounds alone.
// Both bounds are inclusive: an event is ongoing at its exact start and end
// instants.
func ComputeAutomaticStatus(start, end, now time.Time) models.EventStatus {
	switch {
	case now.Before(start):
		return models.EventStatusUpcoming
	case now.After(end):
		return models.EventStatusCompleted
	default:
		return models.EventStatusOngoing
	}
}

// ResolveEffectiveStatus applies the manual override on top of the
// time-derived status. Cancellation wins unconditionally; any other non-auto
// override is returned verbatim; otherwise the automatic status applies.
func ResolveEffectiveStatus(start, end time.Time, override models.EventStatus, now time.Time) models.EventStatus {
	if override == models.EventStatusCancelled {
		return models.EventStatusCancelled
	}
	if override != "" && override != models.EventStatusAuto {
		return override
	}
	return ComputeAutomaticStatus(start, end, now)
}

// CanOverrideStatus reports whether a manual override is still permitted.
// It only gates the edit surface; nothing prevents a direct write.
func CanOverrideStatus(start, end, now time.Time) bool {
	if ComputeAutomaticStatus(start, end, now) == models.EventStatusCompleted &&
		now.Sub(end) > overrideGracePeriod {
		return false
	}
	return true
}

// DescribeStatus renders a human-readable countdown phrase for a status.
func DescribeStatus(status models.EventStatus, start, end, now time.Time) string {
	switch status {
	case models.EventStatusCancelled:
		return "Event cancelled"

	case models.EventStatusUpcoming:
		days := int(math.Ceil(start.Sub(now).Hours() / 24))
		switch {
		case days <= 0:
			return "Starting today"
		case days == 1:
			if sameDay(start, now) {
				return "Starting today"
			}
			return "Starting tomorrow"
		default:
			return fmt.Sprintf("Starting in %d days", days)
		}

	case models.EventStatusOngoing:
		remaining := end.Sub(now)
		switch {
		case remaining <= time.Hour:
			return "Ending soon"
		case remaining <= 24*time.Hour:
			return fmt.Sprintf("Ending in %d hours", int(math.Ceil(remaining.Hours())))
		default:
			return fmt.Sprintf("Ending in %d days", int(math.Ceil(remaining.Hours()/24)))
		}

	case models.EventStatusCompleted:
		elapsed := now.Sub(end)
		switch {
		case elapsed < time.Hour:
			return "Just ended"
		case elapsed < 24*time.Hour:
			return fmt.Sprintf("Ended %d hours ago", int(elapsed.Hours()))
		default:
			return fmt.Sprintf("Ended %d days ago", int(elapsed.Hours()/24))
		}
	}
	return ""
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
