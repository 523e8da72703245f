package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

func TestNewSubjectCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[1-9][0-9]{6}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, NewSubjectCode())
	}
}

func TestSubjects_CreateRetriesOnCodeConflict(t *testing.T) {
	store := newFakeStore()
	subjects := NewSubjects(store, newTestCache(t))
	codes := []string{"1000001", "1000002", "1000003"}
	subjects.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}
	store.conflicts = 2

	created, err := subjects.Create(context.Background(), "Networks", 3)
	require.NoError(t, err)
	assert.Equal(t, "1000003", created.Code)
	assert.Equal(t, 3, store.Calls("CreateSubject"))
}

func TestSubjects_CreateGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newFakeStore()
	subjects := NewSubjects(store, newTestCache(t))
	store.conflicts = codeAttempts

	_, err := subjects.Create(context.Background(), "Networks", 3)
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.Equal(t, codeAttempts, store.Calls("CreateSubject"))
}

func TestSubjects_UpdateDropsCachedReads(t *testing.T) {
	store := newFakeStore()
	subjects := NewSubjects(store, newTestCache(t))
	ctx := context.Background()

	created, err := subjects.Create(ctx, "Networks", 3)
	require.NoError(t, err)
	_, err = subjects.FindOne(ctx, created.ID)
	require.NoError(t, err)

	_, err = subjects.Update(ctx, created.ID, model.SubjectChanges{Name: ptr("Distributed Systems")})
	require.NoError(t, err)

	got, err := subjects.FindOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Distributed Systems", got.Name)
	assert.Equal(t, 2, store.Calls("GetSubject"))
}
