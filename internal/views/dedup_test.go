package views

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.ViewEvent{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM view_events")
	})

	return db
}

func baseInput() RecordInput {
	return RecordInput{
		ContentID:   "news-42",
		ContentType: models.ContentTypeNews,
		AnonID:      "anon-token-1",
		IP:          "203.0.113.7",
		UserAgent:   "Mozilla/5.0 (test)",
	}
}

func TestRecordViewCreatedThenSkipped(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	first, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, first.Action)
	assert.NotEmpty(t, first.View.ID)

	second, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, second.Action)
	assert.Equal(t, first.View.ID, second.View.ID)

	var count int64
	require.NoError(t, db.Model(&models.ViewEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordViewNewRowAfterWindowExpires(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	first, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	require.Equal(t, ActionCreated, first.Action)

	// Age the stored row out of the rolling window
	aged := time.Now().UTC().Add(-16 * time.Minute)
	require.NoError(t, db.Model(&models.ViewEvent{}).
		Where("id = ?", first.View.ID).
		Updates(map[string]interface{}{
			"viewed_at":     aged,
			"window_bucket": aged.Unix() / int64((15 * time.Minute).Seconds()),
		}).Error)

	second, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	assert.Equal(t, ActionCreated, second.Action)
	assert.NotEqual(t, first.View.ID, second.View.ID)
}

func TestRecordViewValidation(t *testing.T) {
	d := NewDeduplicator(newTestDB(t))
	ctx := context.Background()

	in := baseInput()
	in.ContentID = "  "
	_, err := d.RecordView(ctx, in)
	apiErr, ok := err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, apierrors.ErrValidation, apiErr.Code)
	assert.Equal(t, "content_id", apiErr.Field)

	in = baseInput()
	in.ContentType = "banana"
	_, err = d.RecordView(ctx, in)
	apiErr, ok = err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "content_type", apiErr.Field)

	in = baseInput()
	in.AnonID = ""
	in.IP = ""
	_, err = d.RecordView(ctx, in)
	apiErr, ok = err.(*apierrors.APIError)
	require.True(t, ok)
	assert.Equal(t, "viewer", apiErr.Field)
}

func TestDedupHashSensitivity(t *testing.T) {
	ref := DedupHash("news-42", models.ContentTypeNews, "viewer-1", "agent-a")

	assert.NotEqual(t, ref, DedupHash("news-43", models.ContentTypeNews, "viewer-1", "agent-a"))
	assert.NotEqual(t, ref, DedupHash("news-42", models.ContentTypeEvent, "viewer-1", "agent-a"))
	assert.NotEqual(t, ref, DedupHash("news-42", models.ContentTypeNews, "viewer-2", "agent-a"))
	assert.NotEqual(t, ref, DedupHash("news-42", models.ContentTypeNews, "viewer-1", "agent-b"))

	// Deterministic
	assert.Equal(t, ref, DedupHash("news-42", models.ContentTypeNews, "viewer-1", "agent-a"))
}

func TestResolveViewerIdentityPrecedence(t *testing.T) {
	assert.Equal(t, "user-1", ResolveViewerIdentity("user-1", "anon-1", "10.0.0.1"))
	assert.Equal(t, "anon-1", ResolveViewerIdentity("", "anon-1", "10.0.0.1"))
	assert.Equal(t, "10.0.0.1", ResolveViewerIdentity("", "", "10.0.0.1"))
}

func TestRecordViewUserIdentityIgnoresAnonID(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	in := baseInput()
	in.UserID = "user-7"
	first, err := d.RecordView(ctx, in)
	require.NoError(t, err)
	require.Equal(t, ActionCreated, first.Action)

	// A different anonymous cookie must not produce a second row for the
	// same account
	in.AnonID = "completely-different-token"
	second, err := d.RecordView(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, second.Action)
	assert.Equal(t, "user-7", second.View.ViewerIdentity)
}

func TestStatsEndToEnd(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	// Two requests from the same anonymous visitor a few minutes apart
	first, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	require.Equal(t, ActionCreated, first.Action)

	earlier := time.Now().UTC().Add(-5 * time.Minute)
	require.NoError(t, db.Model(&models.ViewEvent{}).
		Where("id = ?", first.View.ID).
		Update("viewed_at", earlier).Error)

	second, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, second.Action)

	stats, err := d.Stats(ctx, "news-42", models.ContentTypeNews, PeriodAll, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalViews)
	assert.EqualValues(t, 1, stats.UniqueViewers)
	require.Len(t, stats.Recent, 1)
	assert.Equal(t, "anon-token-1", stats.Recent[0].ViewerIdentity)
}

func TestStatsUniqueViewers(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := baseInput()
		in.AnonID = fmt.Sprintf("visitor-%d", i)
		res, err := d.RecordView(ctx, in)
		require.NoError(t, err)
		require.Equal(t, ActionCreated, res.Action)
	}

	// Repeat visitor outside the window: second row, same fingerprint
	repeat := baseInput()
	repeat.AnonID = "visitor-0"
	res, err := d.RecordView(ctx, repeat)
	require.NoError(t, err)
	require.Equal(t, ActionSkipped, res.Action)

	aged := time.Now().UTC().Add(-20 * time.Minute)
	require.NoError(t, db.Model(&models.ViewEvent{}).
		Where("viewer_identity = ?", "visitor-0").
		Updates(map[string]interface{}{
			"viewed_at":     aged,
			"window_bucket": aged.Unix() / int64((15 * time.Minute).Seconds()),
		}).Error)
	res, err = d.RecordView(ctx, repeat)
	require.NoError(t, err)
	require.Equal(t, ActionCreated, res.Action)

	stats, err := d.Stats(ctx, "news-42", models.ContentTypeNews, PeriodAll, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalViews)
	assert.EqualValues(t, 3, stats.UniqueViewers, "repeat rows share a dedup hash")
}

func TestStatsPeriodFilter(t *testing.T) {
	db := newTestDB(t)
	d := NewDeduplicator(db)
	ctx := context.Background()

	res, err := d.RecordView(ctx, baseInput())
	require.NoError(t, err)
	require.Equal(t, ActionCreated, res.Action)

	// Push the row outside the trailing day
	aged := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.ViewEvent{}).
		Where("id = ?", res.View.ID).
		Update("viewed_at", aged).Error)

	day, err := d.Stats(ctx, "news-42", models.ContentTypeNews, PeriodDay, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, day.TotalViews)

	all, err := d.Stats(ctx, "news-42", models.ContentTypeNews, PeriodAll, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, all.TotalViews)
}

func TestParsePeriod(t *testing.T) {
	for _, valid := range []string{"day", "week", "month", "all", ""} {
		_, err := ParsePeriod(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParsePeriod("year")
	assert.Error(t, err)
}
