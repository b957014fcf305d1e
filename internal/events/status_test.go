package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wavedash/arena/backend/internal/models"
)

var base = time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

func TestComputeAutomaticStatus(t *testing.T) {
	start := base
	end := base.Add(8 * time.Hour)

	testCases := []struct {
		name     string
		now      time.Time
		expected models.EventStatus
	}{
		{"before start", start.Add(-time.Minute), models.EventStatusUpcoming},
		{"exactly at start", start, models.EventStatusOngoing},
		{"mid event", start.Add(4 * time.Hour), models.EventStatusOngoing},
		{"exactly at end", end, models.EventStatusOngoing},
		{"after end", end.Add(time.Second), models.EventStatusCompleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ComputeAutomaticStatus(start, end, tc.now))
		})
	}
}

func TestResolveEffectiveStatusCancelledAlwaysWins(t *testing.T) {
	// Far-future event with a cancelled override still reads as cancelled
	start := base.Add(365 * 24 * time.Hour)
	end := start.Add(8 * time.Hour)

	got := ResolveEffectiveStatus(start, end, models.EventStatusCancelled, base)
	assert.Equal(t, models.EventStatusCancelled, got)
}

func TestResolveEffectiveStatusManualOverride(t *testing.T) {
	start := base
	end := base.Add(8 * time.Hour)
	now := end.Add(time.Hour) // automatically completed

	assert.Equal(t, models.EventStatusOngoing,
		ResolveEffectiveStatus(start, end, models.EventStatusOngoing, now))
}

func TestResolveEffectiveStatusAutoDefersToComputed(t *testing.T) {
	start := base
	end := base.Add(8 * time.Hour)

	assert.Equal(t, models.EventStatusUpcoming,
		ResolveEffectiveStatus(start, end, models.EventStatusAuto, start.Add(-time.Hour)))
	assert.Equal(t, models.EventStatusUpcoming,
		ResolveEffectiveStatus(start, end, "", start.Add(-time.Hour)))
}

func TestCanOverrideStatus(t *testing.T) {
	start := base
	end := base.Add(8 * time.Hour)

	assert.True(t, CanOverrideStatus(start, end, start.Add(time.Hour)), "ongoing events stay editable")
	assert.True(t, CanOverrideStatus(start, end, end.Add(23*time.Hour)), "within the grace period")
	assert.False(t, CanOverrideStatus(start, end, end.Add(25*time.Hour)), "past the grace period")
}

func TestDescribeStatusUpcoming(t *testing.T) {
	testCases := []struct {
		name     string
		start    time.Time
		expected string
	}{
		{"later the same day", base.Add(5 * time.Hour), "Starting today"},
		{"next day within 24h", base.Add(20 * time.Hour), "Starting tomorrow"},
		{"25 hours out rounds up", base.Add(25 * time.Hour), "Starting in 2 days"},
		{"a week out", base.Add(7 * 24 * time.Hour), "Starting in 7 days"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DescribeStatus(models.EventStatusUpcoming, tc.start, tc.start.Add(time.Hour), base)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDescribeStatusOngoing(t *testing.T) {
	start := base.Add(-time.Hour)

	assert.Equal(t, "Ending soon",
		DescribeStatus(models.EventStatusOngoing, start, base.Add(30*time.Minute), base))
	assert.Equal(t, "Ending in 5 hours",
		DescribeStatus(models.EventStatusOngoing, start, base.Add(5*time.Hour), base))
	assert.Equal(t, "Ending in 2 days",
		DescribeStatus(models.EventStatusOngoing, start, base.Add(40*time.Hour), base))
}

func TestDescribeStatusCompleted(t *testing.T) {
	start := base.Add(-48 * time.Hour)

	assert.Equal(t, "Just ended",
		DescribeStatus(models.EventStatusCompleted, start, base.Add(-30*time.Minute), base))
	assert.Equal(t, "Ended 6 hours ago",
		DescribeStatus(models.EventStatusCompleted, start, base.Add(-6*time.Hour), base))
	assert.Equal(t, "Ended 3 days ago",
		DescribeStatus(models.EventStatusCompleted, start, base.Add(-72*time.Hour), base))
}

func TestDescribeStatusCancelled(t *testing.T) {
	assert.Equal(t, "Event cancelled",
		DescribeStatus(models.EventStatusCancelled, base, base.Add(time.Hour), base))
}
