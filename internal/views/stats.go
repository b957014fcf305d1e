package views

import (
	"context"
	"time"

	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/models"
	"gorm.io/gorm"
)

// Period filters aggregate queries to a trailing time range
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period query value; empty means all time
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return Period(s), nil
	case "":
		return PeriodAll, nil
	}
	return "", apierrors.ValidationError("period", "period must be day, week, month or all")
}

// Cutoff returns the lower time bound for the period, or ok=false for all time
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodDay:
		return now.Add(-24 * time.Hour), true
	case PeriodWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case PeriodMonth:
		return now.Add(-30 * 24 * time.Hour), true
	}
	return time.Time{}, false
}

// RecentView is one raw view row, shaped for the admin/debug listing. Nothing
// beyond the viewer identity (which may be an IP) is exposed.
type RecentView struct {
	ViewedAt       time.Time `json:"viewed_at"`
	ViewerIdentity string    `json:"viewer_identity"`
}

// Stats aggregates the view log for one content item
type Stats struct {
	ContentID     string       `json:"content_id"`
	ContentType   string       `json:"content_type"`
	Period        Period       `json:"period"`
	TotalViews    int64        `json:"total_views"`
	UniqueViewers int64        `json:"unique_viewers"`
	Recent        []RecentView `json:"recent"`
}

// Stats computes total views, distinct-viewer count, and the most recent
// recentLimit raw views for a content item. Read-only; never touches the
// write path.
func (d *Deduplicator) Stats(ctx context.Context, contentID string, contentType models.ContentType, period Period, recentLimit int) (*Stats, error) {
	if contentID == "" {
		return nil, apierrors.ValidationError("content_id", "content_id is required")
	}
	if !contentType.IsValid() {
		return nil, apierrors.ValidationError("content_type", "unknown content type")
	}
	if recentLimit <= 0 {
		recentLimit = 20
	}

	now := time.Now().UTC()
	query := func() *gorm.DB {
		q := d.db.WithContext(ctx).Model(&models.ViewEvent{}).
			Where("content_id = ? AND content_type = ?", contentID, contentType)
		if cutoff, ok := period.Cutoff(now); ok {
			q = q.Where("viewed_at >= ?", cutoff)
		}
		return q
	}

	stats := &Stats{
		ContentID:   contentID,
		ContentType: string(contentType),
		Period:      period,
		Recent:      []RecentView{},
	}

	if err := query().Count(&stats.TotalViews).Error; err != nil {
		return nil, err
	}

	if err := query().Distinct("dedup_hash").Count(&stats.UniqueViewers).Error; err != nil {
		return nil, err
	}

	if err := query().
		Order("viewed_at DESC").
		Limit(recentLimit).
		Select("viewed_at", "viewer_identity").
		Find(&stats.Recent).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
