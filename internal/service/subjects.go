package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
)

type Subjects struct {
	store   db.SubjectStore
	cache   *cache.Cache
	newCode func() string
}

func NewSubjects(store db.SubjectStore, c *cache.Cache) *Subjects {
	return &Subjects{store: store, cache: c, newCode: NewSubjectCode}
}

// NewSubjectCode returns a random 7-digit subject code.
func NewSubjectCode() string {
	return fmt.Sprintf("%d", 1_000_000+rand.IntN(9_000_000))
}

func (s *Subjects) FindMany(ctx context.Context, q model.ListQuery) (model.Page[model.Subject], error) {
	return cache.Memoize(ctx, s.cache, "subjects.findMany", q, func(ctx context.Context) (model.Page[model.Subject], error) {
		subjects, total, err := s.store.ListSubjects(ctx, q)
		if err != nil {
			return model.Page[model.Subject]{}, err
		}
		return model.NewPage(subjects, total, q.Page, q.Limit), nil
	})
}

func (s *Subjects) FindOne(ctx context.Context, id string) (model.Subject, error) {
	return cache.Memoize(ctx, s.cache, "subjects.findOne", id, func(ctx context.Context) (model.Subject, error) {
		return s.store.GetSubject(ctx, id)
	})
}

func (s *Subjects) Create(ctx context.Context, name string, credit int) (model.Subject, error) {
	subject, err := withGeneratedCode(s.newCode, func(code string) (model.Subject, error) {
		return s.store.CreateSubject(ctx, code, name, credit)
	})
	if err != nil {
		return model.Subject{}, err
	}
	invalidate(ctx, s.cache, nsSubjects)
	return subject, nil
}

func (s *Subjects) Update(ctx context.Context, id string, changes model.SubjectChanges) (model.Subject, error) {
	subject, err := s.store.UpdateSubject(ctx, id, changes)
	if err != nil {
		return model.Subject{}, err
	}
	invalidate(ctx, s.cache, nsSubjects, nsClasses)
	return subject, nil
}

func (s *Subjects) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSubject(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, nsSubjects, nsClasses)
	return nil
}
