package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

const sectionColumns = `id, code, subject_id, teacher_id, room_id, status, date, start_time, end_time, created_at, updated_at`

const sectionDetailSelect = `
	SELECT cs.id, cs.code, cs.status, cs.subject_id, s.name AS subject,
	cs.teacher_id, u.name AS teacher, cs.room_id, r.name AS room,
	cs.date, cs.start_time, cs.end_time
	FROM class_sections cs
	JOIN subjects s ON s.id = cs.subject_id
	JOIN teachers t ON t.id = cs.teacher_id
	JOIN users u ON u.id = t.user_id
	JOIN rooms r ON r.id = cs.room_id
	`

// sectionBatchSize keeps one INSERT well below the PostgreSQL bind
// parameter limit.
const sectionBatchSize = 1000

// InsertClassSections stores every row in one transaction. Either all rows
// land or none do.
func (s *pgStore) InsertClassSections(ctx context.Context, rows []model.ClassSection) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	inserted := 0
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for start := 0; start < len(rows); start += sectionBatchSize {
			end := min(start+sectionBatchSize, len(rows))
			res, err := tx.NamedExecContext(ctx, `
				INSERT INTO class_sections (id, code, subject_id, teacher_id, room_id, status, date, start_time, end_time)
				VALUES (:id, :code, :subject_id, :teacher_id, :room_id, :status, :date, :start_time, :end_time)
				`, rows[start:end])
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("code", rows[0].Code).Int("rows", len(rows)).Msg("failed to insert class sections")
		return 0, translate(err)
	}
	return inserted, nil
}

type seriesRow struct {
	model.ClassSeries
	Teachers pq.StringArray `db:"teachers"`
	Rooms    pq.StringArray `db:"rooms"`
}

// seriesHaving builds the HAVING clause for a series listing. Every filter
// is applied to the whole series, so a series matches a room when any of its
// sections is held there.
func seriesHaving(q model.ClassQuery) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if q.RoomID != "" {
		add("bool_or(cs.room_id = $%d)", q.RoomID)
	}
	if q.SubjectID != "" {
		add("bool_or(cs.subject_id = $%d)", q.SubjectID)
	}
	if q.TeacherID != "" {
		add("bool_or(cs.teacher_id = $%d)", q.TeacherID)
	}
	if q.StartDate != "" {
		add("MIN(cs.date) >= $%d::date", q.StartDate)
	}
	if q.EndDate != "" {
		add("MAX(cs.date) <= $%d::date", q.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "HAVING " + strings.Join(conds, " AND "), args
}

func (s *pgStore) ListClassSeries(ctx context.Context, q model.ClassQuery) ([]model.ClassSeries, int, error) {
	having, args := seriesHaving(q)

	var total int
	err := s.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM (
			SELECT cs.code
			FROM class_sections cs
			GROUP BY cs.code
			`+having+`
		) series
		`, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed to count class series")
		return nil, 0, err
	}

	n := len(args)
	query := `
		SELECT cs.code,
		MIN(cs.status)::text AS status,
		MIN(s.name) AS subject,
		array_agg(DISTINCT u.name) AS teachers,
		array_agg(DISTINCT r.name) AS rooms,
		MIN(cs.date) AS start_date,
		MAX(cs.date) AS end_date,
		COUNT(*) AS total_sections
		FROM class_sections cs
		JOIN subjects s ON s.id = cs.subject_id
		JOIN teachers t ON t.id = cs.teacher_id
		JOIN users u ON u.id = t.user_id
		JOIN rooms r ON r.id = cs.room_id
		GROUP BY cs.code
		` + having + fmt.Sprintf(`
		ORDER BY MIN(cs.date) DESC, MIN(cs.start_time) DESC, cs.code
		LIMIT $%d OFFSET $%d
		`, n+1, n+2)

	var rows []seriesRow
	args = append(args, q.Limit, model.Offset(q.Page, q.Limit))
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error().Err(err).Msg("failed to list class series")
		return nil, 0, err
	}

	series := make([]model.ClassSeries, 0, len(rows))
	for _, r := range rows {
		cs := r.ClassSeries
		cs.Teachers = []string(r.Teachers)
		cs.Rooms = []string(r.Rooms)
		series = append(series, cs)
	}
	return series, total, nil
}

func (s *pgStore) GetClassSection(ctx context.Context, id string) (model.ClassSectionDetail, error) {
	var section model.ClassSectionDetail
	err := s.db.GetContext(ctx, &section, sectionDetailSelect+`WHERE cs.id = $1`, id)
	return section, translate(err)
}

func (s *pgStore) ListSeriesSections(ctx context.Context, code string) ([]model.ClassSectionDetail, error) {
	sections := []model.ClassSectionDetail{}
	err := s.db.SelectContext(ctx, &sections, sectionDetailSelect+`
		WHERE cs.code = $1
		ORDER BY cs.date, cs.start_time
		`, code)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to list series sections")
		return nil, err
	}
	return sections, nil
}

func (s *pgStore) UpdateClassSection(ctx context.Context, id string, changes model.ClassSectionChanges) (model.ClassSection, error) {
	var section model.ClassSection
	err := s.db.GetContext(ctx, &section, `
		UPDATE class_sections
		SET subject_id = COALESCE($2, subject_id),
		teacher_id = COALESCE($3, teacher_id),
		room_id = COALESCE($4, room_id),
		status = COALESCE($5, status),
		date = COALESCE($6, date),
		start_time = COALESCE($7, start_time),
		end_time = COALESCE($8, end_time),
		updated_at = now()
		WHERE id = $1
		RETURNING `+sectionColumns,
		id, changes.SubjectID, changes.TeacherID, changes.RoomID, changes.Status,
		changes.Date, changes.StartTime, changes.EndTime)
	if err != nil {
		log.Error().Err(err).Str("section_id", id).Msg("failed to update class section")
	}
	return section, translate(err)
}

func (s *pgStore) DeleteClassSection(ctx context.Context, id string) error {
	return deleteByID(ctx, s, "class_sections", id)
}

func (s *pgStore) DeleteClassSeries(ctx context.Context, code string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM class_sections WHERE code = $1`, code)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to delete class series")
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return int(n), nil
}

// EnrollStudent enrolls the student in every section of the series and
// returns how many new enrollments were made.
func (s *pgStore) EnrollStudent(ctx context.Context, code, studentID string) (int, error) {
	var sections int
	if err := s.db.GetContext(ctx, &sections, `SELECT COUNT(*) FROM class_sections WHERE code = $1`, code); err != nil {
		return 0, err
	}
	if sections == 0 {
		return 0, ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (student_id, class_id)
		SELECT $2, id FROM class_sections WHERE code = $1
		ON CONFLICT DO NOTHING
		`, code, studentID)
	if err != nil {
		log.Error().Err(err).Str("code", code).Str("student_id", studentID).Msg("failed to enroll student")
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *pgStore) UnenrollStudent(ctx context.Context, code, studentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM enrollments e
		USING class_sections cs
		WHERE e.class_id = cs.id AND cs.code = $1 AND e.student_id = $2
		`, code, studentID)
	if err != nil {
		log.Error().Err(err).Str("code", code).Str("student_id", studentID).Msg("failed to unenroll student")
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return int(n), nil
}
