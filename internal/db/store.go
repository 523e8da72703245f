// exposes a Store interface that is passed to services w/ param requirements
package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

type RoomStore interface {
	ListRooms(ctx context.Context, q model.ListQuery) ([]model.Room, int, error)
	GetRoom(ctx context.Context, id string) (model.Room, error)
	CreateRoom(ctx context.Context, name string, capacity int) (model.Room, error)
	UpdateRoom(ctx context.Context, id string, changes model.RoomChanges) (model.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type SubjectStore interface {
	ListSubjects(ctx context.Context, q model.ListQuery) ([]model.Subject, int, error)
	GetSubject(ctx context.Context, id string) (model.Subject, error)
	CreateSubject(ctx context.Context, code, name string, credit int) (model.Subject, error)
	UpdateSubject(ctx context.Context, id string, changes model.SubjectChanges) (model.Subject, error)
	DeleteSubject(ctx context.Context, id string) error
}

type UserStore interface {
	ListUsers(ctx context.Context, q model.UserQuery) ([]model.User, int, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error)
	GetUserByCardID(ctx context.Context, cardID string) (*model.User, error)
	// CreateUser inserts the user and, for students and teachers, the role
	// row. studentCode is only used for students.
	CreateUser(ctx context.Context, u model.NewUser, studentCode string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, changes model.UserChanges) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

type ClassStore interface {
	InsertClassSections(ctx context.Context, rows []model.ClassSection) (int, error)
	ListClassSeries(ctx context.Context, q model.ClassQuery) ([]model.ClassSeries, int, error)
	GetClassSection(ctx context.Context, id string) (model.ClassSectionDetail, error)
	ListSeriesSections(ctx context.Context, code string) ([]model.ClassSectionDetail, error)
	UpdateClassSection(ctx context.Context, id string, changes model.ClassSectionChanges) (model.ClassSection, error)
	DeleteClassSection(ctx context.Context, id string) error
	DeleteClassSeries(ctx context.Context, code string) (int, error)
	EnrollStudent(ctx context.Context, code, studentID string) (int, error)
	UnenrollStudent(ctx context.Context, code, studentID string) (int, error)
}

type AttendanceStore interface {
	// FindOngoingSection returns the non-cancelled section held in roomID on
	// date whose [start, end) contains at.
	FindOngoingSection(ctx context.Context, roomID string, date schedule.Date, at schedule.Clock) (model.ClassSection, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	// RecordAttendance reports false when the student already has a record
	// for the section.
	RecordAttendance(ctx context.Context, classID, studentID string, status model.AttendanceStatus) (bool, error)
	ListAttendance(ctx context.Context, classID string) ([]model.Attendance, error)
}

type Store interface {
	RoomStore
	SubjectStore
	UserStore
	ClassStore
	AttendanceStore
	Ping(ctx context.Context) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	return &pgStore{db: conn}
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
