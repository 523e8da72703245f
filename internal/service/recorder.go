package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

const DefaultGrace = 15 * time.Minute

var (
	ErrNoRoom          = errors.New("scan has no room")
	ErrUnknownCard     = errors.New("card is not registered")
	ErrNotStudent      = errors.New("card does not belong to a student")
	ErrNoSection       = errors.New("no class in progress in this room")
	ErrNotEnrolled     = errors.New("student is not enrolled in this class")
	ErrAlreadyRecorded = errors.New("attendance already recorded")
)

type RecorderStore interface {
	GetUserByCardID(ctx context.Context, cardID string) (*model.User, error)
	db.AttendanceStore
}

// Recorder turns card scans into attendance rows.
type Recorder struct {
	store RecorderStore
	cache *cache.Cache
	grace time.Duration
	loc   *time.Location
}

func NewRecorder(store RecorderStore, c *cache.Cache, grace time.Duration, loc *time.Location) *Recorder {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Recorder{store: store, cache: c, grace: grace, loc: loc}
}

// Record marks the scanning student present when the scan lands within the
// grace period after the section starts, and late after that.
func (r *Recorder) Record(ctx context.Context, scan nfc.Scan) (model.AttendanceStatus, error) {
	if scan.RoomID == "" {
		return "", ErrNoRoom
	}

	user, err := r.store.GetUserByCardID(ctx, scan.CardID)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrUnknownCard
	}
	if err != nil {
		return "", err
	}
	if user.StudentID == nil {
		return "", ErrNotStudent
	}

	at := scan.ScannedAt.In(r.loc)
	date := schedule.DateOf(at)
	clock := schedule.Clock{Hour: at.Hour(), Minute: at.Minute(), Second: at.Second()}

	section, err := r.store.FindOngoingSection(ctx, scan.RoomID, date, clock)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrNoSection
	}
	if err != nil {
		return "", err
	}

	enrolled, err := r.store.IsEnrolled(ctx, section.ID, *user.StudentID)
	if err != nil {
		return "", err
	}
	if !enrolled {
		return "", ErrNotEnrolled
	}

	status := model.AttendancePresent
	if at.Sub(section.Date.At(section.StartTime, r.loc)) > r.grace {
		status = model.AttendanceLate
	}

	recorded, err := r.store.RecordAttendance(ctx, section.ID, *user.StudentID, status)
	if err != nil {
		return "", err
	}
	if !recorded {
		return "", ErrAlreadyRecorded
	}
	invalidate(ctx, r.cache, nsClasses)
	return status, nil
}

// Run records every scan from scans until ctx ends or scans is closed.
func (r *Recorder) Run(ctx context.Context, scans <-chan nfc.Scan) {
	for {
		select {
		case <-ctx.Done():
			return
		case scan, ok := <-scans:
			if !ok {
				return
			}
			r.handle(ctx, scan)
		}
	}
}

func (r *Recorder) handle(ctx context.Context, scan nfc.Scan) {
	status, err := r.Record(ctx, scan)
	switch {
	case err == nil:
		log.Info().
			Str("card_id", scan.CardID).
			Str("room_id", scan.RoomID).
			Str("status", string(status)).
			Msg("attendance recorded")
	case errors.Is(err, ErrNoRoom), errors.Is(err, ErrUnknownCard), errors.Is(err, ErrNotStudent),
		errors.Is(err, ErrNoSection), errors.Is(err, ErrNotEnrolled), errors.Is(err, ErrAlreadyRecorded):
		log.Debug().
			Str("card_id", scan.CardID).
			Str("room_id", scan.RoomID).
			Str("reason", err.Error()).
			Msg("scan skipped")
	default:
		log.Error().Err(err).Str("card_id", scan.CardID).Msg("failed to record attendance")
	}
}
