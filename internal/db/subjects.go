package db

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

const subjectColumns = `id, code, name, credit, created_at, updated_at`

func (s *pgStore) ListSubjects(ctx context.Context, q model.ListQuery) ([]model.Subject, int, error) {
	const filter = `WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%' OR code ILIKE '%' || $1 || '%')`

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subjects `+filter, q.Search); err != nil {
		log.Error().Err(err).Msg("failed to count subjects")
		return nil, 0, err
	}

	subjects := []model.Subject{}
	err := s.db.SelectContext(ctx, &subjects, `
		SELECT `+subjectColumns+`
		FROM subjects
		`+filter+`
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3
		`, q.Search, q.Limit, model.Offset(q.Page, q.Limit))
	if err != nil {
		log.Error().Err(err).Msg("failed to list subjects")
		return nil, 0, err
	}
	return subjects, total, nil
}

func (s *pgStore) GetSubject(ctx context.Context, id string) (model.Subject, error) {
	var subject model.Subject
	err := s.db.GetContext(ctx, &subject, `
		SELECT `+subjectColumns+`
		FROM subjects
		WHERE id = $1
		`, id)
	return subject, translate(err)
}

func (s *pgStore) CreateSubject(ctx context.Context, code, name string, credit int) (model.Subject, error) {
	var subject model.Subject
	q := `
	INSERT INTO subjects (code, name, credit, created_at, updated_at)
	VALUES ($1, $2, $3, now(), now())
	RETURNING ` + subjectColumns
	if err := s.db.GetContext(ctx, &subject, q, code, name, credit); err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to create subject")
		return model.Subject{}, translate(err)
	}
	return subject, nil
}

func (s *pgStore) UpdateSubject(ctx context.Context, id string, changes model.SubjectChanges) (model.Subject, error) {
	var subject model.Subject
	err := s.db.GetContext(ctx, &subject, `
		UPDATE subjects
		SET name = COALESCE($2, name),
		credit = COALESCE($3, credit),
		updated_at = now()
		WHERE id = $1
		RETURNING `+subjectColumns, id, changes.Name, changes.Credit)
	if err != nil {
		log.Error().Err(err).Str("subject_id", id).Msg("failed to update subject")
	}
	return subject, translate(err)
}

func (s *pgStore) DeleteSubject(ctx context.Context, id string) error {
	return deleteByID(ctx, s, "subjects", id)
}
