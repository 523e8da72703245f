package db

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("wrapped: %w", sql.ErrNoRows)), ErrNotFound)

	dup := &pq.Error{Code: "23505", Constraint: "subjects_code_key"}
	err := translate(dup)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "subjects_code_key")

	assert.ErrorIs(t, translate(&pq.Error{Code: "23503"}), ErrReference)
	assert.ErrorIs(t, translate(&pq.Error{Code: "22P02"}), ErrInvalid)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23514"}), ErrInvalid)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestSeriesHaving(t *testing.T) {
	clause, args := seriesHaving(model.ClassQuery{Page: 1, Limit: 10})
	assert.Empty(t, clause)
	assert.Empty(t, args)

	clause, args = seriesHaving(model.ClassQuery{
		RoomID:    "room-1",
		TeacherID: "teacher-1",
		EndDate:   "2025-02-01",
	})
	assert.Equal(t,
		"HAVING bool_or(cs.room_id = $1) AND bool_or(cs.teacher_id = $2) AND MAX(cs.date) <= $3::date",
		clause)
	assert.Equal(t, []any{"room-1", "teacher-1", "2025-02-01"}, args)
}
