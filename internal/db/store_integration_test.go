package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

func ptr[T any](v T) *T { return &v }

func TestStoreIntegration(t *testing.T) {
	_, store := InitTestDB(t, "../../migrations")
	ctx := context.Background()
	suffix := uuid.NewString()[:8]

	room, err := store.CreateRoom(ctx, "Lab "+suffix, 40)
	require.NoError(t, err)
	subject, err := store.CreateSubject(ctx, suffix[:7], "Networks "+suffix, 3)
	require.NoError(t, err)

	teacher, err := store.CreateUser(ctx, model.NewUser{
		Name: "Teacher " + suffix, Role: model.RoleTeacher, Email: ptr("t-" + suffix + "@example.com"),
	}, "")
	require.NoError(t, err)
	require.NotNil(t, teacher.TeacherID)

	studentCode := "25" + suffix[:6]
	student, err := store.CreateUser(ctx, model.NewUser{
		Name: "Student " + suffix, Role: model.RoleStudent, CardID: ptr("card-" + suffix),
	}, studentCode)
	require.NoError(t, err)
	require.NotNil(t, student.StudentID)
	assert.Equal(t, studentCode, *student.StudentID)

	t.Run("Rooms", func(t *testing.T) {
		got, err := store.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, room.Name, got.Name)

		rooms, total, err := store.ListRooms(ctx, model.ListQuery{Search: suffix, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, rooms, 1)

		updated, err := store.UpdateRoom(ctx, room.ID, model.RoomChanges{Capacity: ptr(50)})
		require.NoError(t, err)
		assert.Equal(t, 50, updated.Capacity)
		assert.Equal(t, room.Name, updated.Name)

		_, err = store.GetRoom(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Subjects", func(t *testing.T) {
		_, err := store.CreateSubject(ctx, subject.Code, "Duplicate", 1)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("Users", func(t *testing.T) {
		byCard, err := store.GetUserByCardID(ctx, "card-"+suffix)
		require.NoError(t, err)
		assert.Equal(t, student.ID, byCard.ID)

		byCode, err := store.GetUserByStudentID(ctx, studentCode)
		require.NoError(t, err)
		assert.Equal(t, student.ID, byCode.ID)

		byEmail, err := store.GetUserByEmail(ctx, "T-"+suffix+"@example.com")
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, byEmail.ID)

		users, total, err := store.ListUsers(ctx, model.UserQuery{Search: suffix, Role: model.RoleStudent, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, student.ID, users[0].ID)
	})

	t.Run("Class series", func(t *testing.T) {
		code := schedule.NewSeriesCode()
		start := schedule.NewDate(2025, 1, 6)
		var rows []model.ClassSection
		for i := 0; i < 3; i++ {
			rows = append(rows, model.ClassSection{
				ID: uuid.NewString(), Code: code, SubjectID: subject.ID, TeacherID: *teacher.TeacherID,
				RoomID: room.ID, Status: model.ClassWaiting, Date: start.AddDays(7 * i),
				StartTime: schedule.Clock{Hour: 9}, EndTime: schedule.Clock{Hour: 10, Minute: 30},
			})
		}
		n, err := store.InsertClassSections(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		series, total, err := store.ListClassSeries(ctx, model.ClassQuery{RoomID: room.ID, Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, series, 1)
		assert.Equal(t, code, series[0].Code)
		assert.Equal(t, 3, series[0].TotalSections)
		assert.Equal(t, []string{teacher.Name}, series[0].Teachers)
		assert.Equal(t, start, series[0].StartDate)
		assert.Equal(t, start.AddDays(14), series[0].EndDate)

		enrolled, err := store.EnrollStudent(ctx, code, studentCode)
		require.NoError(t, err)
		assert.Equal(t, 3, enrolled)

		section, err := store.FindOngoingSection(ctx, room.ID, start, schedule.Clock{Hour: 9, Minute: 5})
		require.NoError(t, err)
		assert.Equal(t, rows[0].ID, section.ID)

		_, err = store.FindOngoingSection(ctx, room.ID, start, schedule.Clock{Hour: 10, Minute: 30})
		assert.ErrorIs(t, err, ErrNotFound)

		ok, err := store.IsEnrolled(ctx, section.ID, studentCode)
		require.NoError(t, err)
		assert.True(t, ok)

		first, err := store.RecordAttendance(ctx, section.ID, studentCode, model.AttendancePresent)
		require.NoError(t, err)
		assert.True(t, first)
		again, err := store.RecordAttendance(ctx, section.ID, studentCode, model.AttendanceLate)
		require.NoError(t, err)
		assert.False(t, again)

		records, err := store.ListAttendance(ctx, section.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, model.AttendancePresent, records[0].Status)
		assert.Equal(t, student.Name, records[0].StudentName)

		err = store.DeleteRoom(ctx, room.ID)
		assert.ErrorIs(t, err, ErrReference)

		deleted, err := store.DeleteClassSeries(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
	})

	require.NoError(t, store.DeleteUser(ctx, student.ID))
	require.NoError(t, store.DeleteUser(ctx, teacher.ID))
	require.NoError(t, store.DeleteSubject(ctx, subject.ID))
	require.NoError(t, store.DeleteRoom(ctx, room.ID))
}
