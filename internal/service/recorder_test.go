package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/nfc"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

// Monday 2024-01-01, 09:00 to 10:00 in room-1.
func newTestRecorder(t *testing.T) (*Recorder, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.sections = []model.ClassSection{{
		ID: "section-1", Code: "123456789012", RoomID: "room-1", Status: model.ClassWaiting,
		Date:      schedule.NewDate(2024, 1, 1),
		StartTime: schedule.Clock{Hour: 9}, EndTime: schedule.Clock{Hour: 10},
	}}
	store.users["u1"] = &model.User{ID: "u1", Role: model.RoleStudent, CardID: ptr("card-1"), StudentID: ptr("24000001")}
	store.users["u2"] = &model.User{ID: "u2", Role: model.RoleStudent, CardID: ptr("card-2"), StudentID: ptr("24000002")}
	store.users["u3"] = &model.User{ID: "u3", Role: model.RoleTeacher, CardID: ptr("card-3"), TeacherID: ptr("t3")}
	store.users["u4"] = &model.User{ID: "u4", Role: model.RoleStudent, CardID: ptr("card-4"), StudentID: ptr("24000004")}
	store.enrolled["section-1/24000001"] = true
	store.enrolled["section-1/24000002"] = true

	return NewRecorder(store, newTestCache(t), 15*time.Minute, time.UTC), store
}

func scanAt(card, room string, hour, minute int) nfc.Scan {
	return nfc.Scan{CardID: card, RoomID: room, ScannedAt: time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)}
}

func TestRecorder_PresentWithinGrace(t *testing.T) {
	rec, store := newTestRecorder(t)

	status, err := rec.Record(context.Background(), scanAt("card-1", "room-1", 9, 15))
	require.NoError(t, err)
	assert.Equal(t, model.AttendancePresent, status)

	got, ok := store.Recorded("section-1", "24000001")
	assert.True(t, ok)
	assert.Equal(t, model.AttendancePresent, got)
}

func TestRecorder_LateAfterGrace(t *testing.T) {
	rec, _ := newTestRecorder(t)

	status, err := rec.Record(context.Background(), scanAt("card-2", "room-1", 9, 16))
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceLate, status)
}

func TestRecorder_SkipReasons(t *testing.T) {
	rec, _ := newTestRecorder(t)
	ctx := context.Background()

	_, err := rec.Record(ctx, scanAt("card-1", "", 9, 5))
	assert.ErrorIs(t, err, ErrNoRoom)

	_, err = rec.Record(ctx, scanAt("card-x", "room-1", 9, 5))
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = rec.Record(ctx, scanAt("card-3", "room-1", 9, 5))
	assert.ErrorIs(t, err, ErrNotStudent)

	_, err = rec.Record(ctx, scanAt("card-1", "room-2", 9, 5))
	assert.ErrorIs(t, err, ErrNoSection)

	// end of the slot is exclusive
	_, err = rec.Record(ctx, scanAt("card-1", "room-1", 10, 0))
	assert.ErrorIs(t, err, ErrNoSection)

	_, err = rec.Record(ctx, scanAt("card-4", "room-1", 9, 5))
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = rec.Record(ctx, scanAt("card-1", "room-1", 9, 5))
	require.NoError(t, err)
	_, err = rec.Record(ctx, scanAt("card-1", "room-1", 9, 6))
	assert.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestRecorder_CancelledSectionIsIgnored(t *testing.T) {
	rec, store := newTestRecorder(t)
	store.sections[0].Status = model.ClassCancelled

	_, err := rec.Record(context.Background(), scanAt("card-1", "room-1", 9, 5))
	assert.ErrorIs(t, err, ErrNoSection)
}

func TestRecorder_UsesConfiguredZone(t *testing.T) {
	store := newFakeStore()
	store.sections = []model.ClassSection{{
		ID: "section-1", RoomID: "room-1", Status: model.ClassWaiting,
		Date:      schedule.NewDate(2024, 1, 1),
		StartTime: schedule.Clock{Hour: 9}, EndTime: schedule.Clock{Hour: 10},
	}}
	store.users["u1"] = &model.User{ID: "u1", CardID: ptr("card-1"), StudentID: ptr("24000001")}
	store.enrolled["section-1/24000001"] = true
	rec := NewRecorder(store, newTestCache(t), 0, time.FixedZone("JST", 9*3600))

	// 00:05 UTC is 09:05 in UTC+9.
	status, err := rec.Record(context.Background(), nfc.Scan{
		CardID: "card-1", RoomID: "room-1",
		ScannedAt: time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AttendancePresent, status)
}

func TestRecorder_RecordingRefreshesAttendanceListing(t *testing.T) {
	store := newFakeStore()
	c := newTestCache(t)
	classes := NewClasses(store, c, time.UTC)
	rec := NewRecorder(store, c, 0, time.UTC)
	store.sections = []model.ClassSection{{
		ID: "section-1", RoomID: "room-1", Status: model.ClassWaiting,
		Date:      schedule.NewDate(2024, 1, 1),
		StartTime: schedule.Clock{Hour: 9}, EndTime: schedule.Clock{Hour: 10},
	}}
	store.users["u1"] = &model.User{ID: "u1", CardID: ptr("card-1"), StudentID: ptr("24000001")}
	store.enrolled["section-1/24000001"] = true
	ctx := context.Background()

	before, err := classes.Attendance(ctx, "section-1")
	require.NoError(t, err)
	assert.Empty(t, before)

	_, err = rec.Record(ctx, scanAt("card-1", "room-1", 9, 1))
	require.NoError(t, err)

	after, err := classes.Attendance(ctx, "section-1")
	require.NoError(t, err)
	assert.Len(t, after, 1)
}

func TestRecorder_RunConsumesFeed(t *testing.T) {
	rec, store := newTestRecorder(t)
	feed := nfc.NewFeed(4)
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scans := feed.Subscribe(ctx)

	done := make(chan struct{})
	go func() {
		rec.Run(ctx, scans)
		close(done)
	}()

	feed.Publish(scanAt("card-x", "room-1", 9, 1))
	feed.Publish(scanAt("card-1", "room-1", 9, 2))

	require.Eventually(t, func() bool {
		_, ok := store.Recorded("section-1", "24000001")
		return ok
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
}
