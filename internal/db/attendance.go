package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

func (s *pgStore) FindOngoingSection(ctx context.Context, roomID string, date schedule.Date, at schedule.Clock) (model.ClassSection, error) {
	var section model.ClassSection
	err := s.db.GetContext(ctx, &section, `
		SELECT `+sectionColumns+`
		FROM class_sections
		WHERE room_id = $1
		AND date = $2
		AND start_time <= $3 AND end_time > $3
		AND status <> 'cancelled'
		ORDER BY start_time DESC
		LIMIT 1
		`, roomID, date, at)
	return section, translate(err)
}

func (s *pgStore) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var enrolled bool
	err := s.db.GetContext(ctx, &enrolled, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE class_id = $1 AND student_id = $2
		)`, classID, studentID)
	return enrolled, err
}

func (s *pgStore) RecordAttendance(ctx context.Context, classID, studentID string, status model.AttendanceStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attendances (class_id, student_id, status, recorded_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (class_id, student_id) DO NOTHING
		`, classID, studentID, string(status))
	if err != nil {
		log.Error().Err(err).Str("class_id", classID).Str("student_id", studentID).Msg("failed to record attendance")
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *pgStore) ListAttendance(ctx context.Context, classID string) ([]model.Attendance, error) {
	records := []model.Attendance{}
	err := s.db.SelectContext(ctx, &records, `
		SELECT a.id, a.class_id, a.student_id, u.name AS student_name, a.status, a.recorded_at, a.note
		FROM attendances a
		JOIN students st ON st.id = a.student_id
		JOIN users u ON u.id = st.user_id
		WHERE a.class_id = $1
		ORDER BY a.recorded_at, u.name
		`, classID)
	if err != nil {
		log.Error().Err(err).Str("class_id", classID).Msg("failed to list attendance")
		return nil, err
	}
	return records, nil
}
