// Package views records content views exactly once per visitor per content
// item per 15-minute window, and serves the aggregate counts derived from the
// append-only view log.
package views

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"strings"
	"time"

	"github.com/lib/pq"
	apierrors "github.com/wavedash/arena/backend/internal/errors"
	"github.com/wavedash/arena/backend/internal/models"
	"gorm.io/gorm"
)

// dedupWindow is the rolling window within which repeat views from the same
// fingerprint collapse into one logical view. Fixed policy, not configurable.
const dedupWindow = 15 * time.Minute

// RecordAction says whether RecordView stored a new row or found an existing one
type RecordAction string

const (
	ActionCreated RecordAction = "created"
	ActionSkipped RecordAction = "skipped"
)

// RecordInput carries everything that goes into the visitor fingerprint
type RecordInput struct {
	ContentID   string
	ContentType models.ContentType
	UserID      string // empty when unauthenticated
	AnonID      string // long-lived per-browser token, empty if absent
	IP          string
	UserAgent   string
}

// RecordResult reports the outcome of a RecordView call. The action is for
// server-side logging only; the HTTP layer responds identically either way.
type RecordResult struct {
	Action RecordAction
	View   models.ViewEvent
}

// Deduplicator performs the windowed check-then-insert for view tracking
type Deduplicator struct {
	db *gorm.DB
}

// NewDeduplicator creates a deduplicator backed by db
func NewDeduplicator(db *gorm.DB) *Deduplicator {
	return &Deduplicator{db: db}
}

// ResolveViewerIdentity picks the visitor identity: account ID when logged in,
// else the anonymous browser token, else the raw IP. A logged-in user is
// tracked by account even if they also carry an anonymous cookie.
func ResolveViewerIdentity(userID, anonID, ip string) string {
	if userID != "" {
		return userID
	}
	if anonID != "" {
		return anonID
	}
	return ip
}

// DedupHash computes the privacy-preserving fingerprint of one visitor viewing
// one piece of content. Content identity is folded in so a single table serves
// every content type.
func DedupHash(contentID string, contentType models.ContentType, viewerIdentity, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(contentID))
	h.Write([]byte{0})
	h.Write([]byte(contentType))
	h.Write([]byte{0})
	h.Write([]byte(viewerIdentity))
	h.Write([]byte{0})
	h.Write([]byte(userAgent))
	return hex.EncodeToString(h.Sum(nil))
}

// windowBucket truncates t to the 15-minute epoch backing the unique index
func windowBucket(t time.Time) int64 {
	return t.Unix() / int64(dedupWindow/time.Second)
}

// errDuplicateView signals that a concurrent request won the insert race
var errDuplicateView = stderrors.New("duplicate view event")

// RecordView records a view unless an identical fingerprint was already seen
// inside the rolling window. The check and insert run in one transaction; a
// unique index on (dedup_hash, window_bucket) backstops the residual
// check-then-act race, with a losing insert reported as skipped.
//
// Returns *apierrors.APIError for invalid input; store failures pass through
// untouched and are not retried here.
func (d *Deduplicator) RecordView(ctx context.Context, in RecordInput) (*RecordResult, error) {
	if strings.TrimSpace(in.ContentID) == "" {
		return nil, apierrors.ValidationError("content_id", "content_id is required")
	}
	if !in.ContentType.IsValid() {
		return nil, apierrors.ValidationError("content_type", "unknown content type")
	}

	identity := ResolveViewerIdentity(in.UserID, in.AnonID, in.IP)
	if identity == "" {
		return nil, apierrors.ValidationError("viewer", "no viewer identity available")
	}

	userAgent := in.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}

	hash := DedupHash(in.ContentID, in.ContentType, identity, userAgent)
	now := time.Now().UTC()

	var result RecordResult
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ViewEvent
		err := tx.Where("dedup_hash = ? AND viewed_at >= ?", hash, now.Add(-dedupWindow)).
			First(&existing).Error
		if err == nil {
			result = RecordResult{Action: ActionSkipped, View: existing}
			return nil
		}
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		view := models.ViewEvent{
			ContentID:      in.ContentID,
			ContentType:    in.ContentType,
			ViewerIdentity: identity,
			UserAgent:      userAgent,
			DedupHash:      hash,
			WindowBucket:   windowBucket(now),
			ViewedAt:       now,
		}
		if err := tx.Create(&view).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicateView
			}
			return err
		}

		result = RecordResult{Action: ActionCreated, View: view}
		return nil
	})

	if stderrors.Is(err, errDuplicateView) {
		// Lost the race; the transaction rolled back, so fetch the winner
		// outside it.
		var existing models.ViewEvent
		ferr := d.db.WithContext(ctx).
			Where("dedup_hash = ? AND viewed_at >= ?", hash, now.Add(-dedupWindow)).
			Order("viewed_at DESC").
			First(&existing).Error
		if ferr != nil {
			return nil, ferr
		}
		return &RecordResult{Action: ActionSkipped, View: existing}, nil
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// isUniqueViolation detects a unique constraint error from Postgres or from
// the sqlite driver used in tests
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value")
}
