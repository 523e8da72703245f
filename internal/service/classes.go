package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

// ClassStore is what the class service needs from persistence.
type ClassStore interface {
	db.ClassStore
	ListAttendance(ctx context.Context, classID string) ([]model.Attendance, error)
}

// CreateClassInput is a schedule request plus the subject, teacher and room
// every produced section is attached to.
type CreateClassInput struct {
	SubjectID string
	TeacherID string
	RoomID    string
	schedule.Request
}

type Classes struct {
	store   ClassStore
	cache   *cache.Cache
	loc     *time.Location
	newCode func() string
	newID   func() string
	now     func() time.Time
}

// NewClasses builds the class service. loc is the zone class dates and times
// are expressed in.
func NewClasses(store ClassStore, c *cache.Cache, loc *time.Location) *Classes {
	if loc == nil {
		loc = time.UTC
	}
	return &Classes{
		store:   store,
		cache:   c,
		loc:     loc,
		newCode: schedule.NewSeriesCode,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// Create expands the request into dated sections sharing one series code and
// stores them together. A request matching no dates creates nothing and
// reports zero sections.
func (s *Classes) Create(ctx context.Context, in CreateClassInput) (model.CreatedSeries, error) {
	if err := in.Request.Validate(); err != nil {
		return model.CreatedSeries{}, invalid(err)
	}

	code := s.newCode()
	occurrences := in.Occurrences()
	rows := make([]model.ClassSection, 0, len(occurrences))
	for _, o := range occurrences {
		rows = append(rows, model.ClassSection{
			ID:        s.newID(),
			Code:      code,
			SubjectID: in.SubjectID,
			TeacherID: in.TeacherID,
			RoomID:    in.RoomID,
			Status:    model.ClassWaiting,
			Date:      o.Date,
			StartTime: o.Start,
			EndTime:   o.End,
		})
	}

	n, err := s.store.InsertClassSections(ctx, rows)
	if err != nil {
		return model.CreatedSeries{}, err
	}
	if n > 0 {
		invalidate(ctx, s.cache, nsClasses)
	}
	return model.CreatedSeries{Code: code, NumberOfSections: n}, nil
}

func (s *Classes) FindMany(ctx context.Context, q model.ClassQuery) (model.Page[model.ClassSeries], error) {
	return cache.Memoize(ctx, s.cache, "classes.findMany", q, func(ctx context.Context) (model.Page[model.ClassSeries], error) {
		series, total, err := s.store.ListClassSeries(ctx, q)
		if err != nil {
			return model.Page[model.ClassSeries]{}, err
		}
		return model.NewPage(series, total, q.Page, q.Limit), nil
	})
}

func (s *Classes) FindOne(ctx context.Context, id string) (model.ClassSectionDetail, error) {
	return cache.Memoize(ctx, s.cache, "classes.findOne", id, func(ctx context.Context) (model.ClassSectionDetail, error) {
		return s.store.GetClassSection(ctx, id)
	})
}

// Series lists the sections of one series by date and start time.
func (s *Classes) Series(ctx context.Context, code string) ([]model.ClassSectionDetail, error) {
	return cache.Memoize(ctx, s.cache, "classes.series", code, func(ctx context.Context) ([]model.ClassSectionDetail, error) {
		sections, err := s.store.ListSeriesSections(ctx, code)
		if err != nil {
			return nil, err
		}
		if len(sections) == 0 {
			return nil, db.ErrNotFound
		}
		return sections, nil
	})
}

func (s *Classes) Update(ctx context.Context, id string, changes model.ClassSectionChanges) (model.ClassSection, error) {
	if changes.Status != nil && !changes.Status.Valid() {
		return model.ClassSection{}, invalid(errors.New("unknown status"))
	}
	if changes.StartTime != nil && changes.EndTime != nil && !changes.StartTime.Before(*changes.EndTime) {
		return model.ClassSection{}, invalid(errors.New("start_time must be before end_time"))
	}
	section, err := s.store.UpdateClassSection(ctx, id, changes)
	if err != nil {
		return model.ClassSection{}, err
	}
	invalidate(ctx, s.cache, nsClasses)
	return section, nil
}

func (s *Classes) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteClassSection(ctx, id); err != nil {
		return err
	}
	invalidate(ctx, s.cache, nsClasses)
	return nil
}

func (s *Classes) DeleteSeries(ctx context.Context, code string) (int, error) {
	n, err := s.store.DeleteClassSeries(ctx, code)
	if err != nil {
		return 0, err
	}
	invalidate(ctx, s.cache, nsClasses)
	return n, nil
}

// Enroll adds the student to every section of the series.
func (s *Classes) Enroll(ctx context.Context, code, studentID string) (int, error) {
	n, err := s.store.EnrollStudent(ctx, code, studentID)
	if err != nil {
		return 0, err
	}
	invalidate(ctx, s.cache, nsClasses)
	return n, nil
}

func (s *Classes) Unenroll(ctx context.Context, code, studentID string) (int, error) {
	n, err := s.store.UnenrollStudent(ctx, code, studentID)
	if err != nil {
		return 0, err
	}
	invalidate(ctx, s.cache, nsClasses)
	return n, nil
}

// Attendance lists the attendance recorded for one section.
func (s *Classes) Attendance(ctx context.Context, sectionID string) ([]model.Attendance, error) {
	return cache.Memoize(ctx, s.cache, "classes.attendance", sectionID, func(ctx context.Context) ([]model.Attendance, error) {
		if _, err := s.store.GetClassSection(ctx, sectionID); err != nil {
			return nil, err
		}
		return s.store.ListAttendance(ctx, sectionID)
	})
}
