package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/kiriha/internal/cache"
	"github.com/Nixie-Tech-LLC/kiriha/internal/db"
	"github.com/Nixie-Tech-LLC/kiriha/internal/model"
	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := cache.NewMemoryStore(64)
	require.NoError(t, err)
	return cache.New(store, cache.DefaultTTL)
}

func ptr[T any](v T) *T { return &v }

// fakeStore is an in-memory stand-in for the Postgres store. It counts calls
// so tests can tell cache hits from store reads.
type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int

	rooms    map[string]model.Room
	subjects map[string]model.Subject
	users    map[string]*model.User
	sections []model.ClassSection
	enrolled map[string]bool // class id + "/" + student id
	records  map[string]model.AttendanceStatus

	// conflicts makes the next n code-bearing inserts fail with ErrConflict.
	conflicts int
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		calls:    map[string]int{},
		rooms:    map[string]model.Room{},
		subjects: map[string]model.Subject{},
		users:    map[string]*model.User{},
		enrolled: map[string]bool{},
		records:  map[string]model.AttendanceStatus{},
	}
}

func (f *fakeStore) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeStore) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) ListRooms(_ context.Context, q model.ListQuery) ([]model.Room, int, error) {
	f.count("ListRooms")
	if f.failWith != nil {
		return nil, 0, f.failWith
	}
	var rooms []model.Room
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	return rooms, len(rooms), nil
}

func (f *fakeStore) GetRoom(_ context.Context, id string) (model.Room, error) {
	f.count("GetRoom")
	r, ok := f.rooms[id]
	if !ok {
		return model.Room{}, db.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) CreateRoom(_ context.Context, name string, capacity int) (model.Room, error) {
	f.count("CreateRoom")
	r := model.Room{ID: "room-" + name, Name: name, Capacity: capacity}
	f.rooms[r.ID] = r
	return r, nil
}

func (f *fakeStore) UpdateRoom(_ context.Context, id string, ch model.RoomChanges) (model.Room, error) {
	f.count("UpdateRoom")
	r, ok := f.rooms[id]
	if !ok {
		return model.Room{}, db.ErrNotFound
	}
	if ch.Name != nil {
		r.Name = *ch.Name
	}
	if ch.Capacity != nil {
		r.Capacity = *ch.Capacity
	}
	f.rooms[id] = r
	return r, nil
}

func (f *fakeStore) DeleteRoom(_ context.Context, id string) error {
	f.count("DeleteRoom")
	if _, ok := f.rooms[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeStore) CreateSubject(_ context.Context, code, name string, credit int) (model.Subject, error) {
	f.count("CreateSubject")
	if f.conflicts > 0 {
		f.conflicts--
		return model.Subject{}, db.ErrConflict
	}
	s := model.Subject{ID: "subject-" + code, Code: code, Name: name, Credit: credit}
	f.subjects[s.ID] = s
	return s, nil
}

func (f *fakeStore) ListSubjects(_ context.Context, _ model.ListQuery) ([]model.Subject, int, error) {
	f.count("ListSubjects")
	var subjects []model.Subject
	for _, s := range f.subjects {
		subjects = append(subjects, s)
	}
	return subjects, len(subjects), nil
}

func (f *fakeStore) GetSubject(_ context.Context, id string) (model.Subject, error) {
	f.count("GetSubject")
	s, ok := f.subjects[id]
	if !ok {
		return model.Subject{}, db.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) UpdateSubject(_ context.Context, id string, ch model.SubjectChanges) (model.Subject, error) {
	s, ok := f.subjects[id]
	if !ok {
		return model.Subject{}, db.ErrNotFound
	}
	if ch.Name != nil {
		s.Name = *ch.Name
	}
	if ch.Credit != nil {
		s.Credit = *ch.Credit
	}
	f.subjects[id] = s
	return s, nil
}

func (f *fakeStore) DeleteSubject(_ context.Context, id string) error {
	if _, ok := f.subjects[id]; !ok {
		return db.ErrNotFound
	}
	delete(f.subjects, id)
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.count("GetUserByID")
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) findUser(match func(*model.User) bool) (*model.User, error) {
	for _, u := range f.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Email != nil && *u.Email == email })
}

func (f *fakeStore) GetUserByStudentID(_ context.Context, code string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.StudentID != nil && *u.StudentID == code })
}

func (f *fakeStore) GetUserByCardID(_ context.Context, card string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.CardID != nil && *u.CardID == card })
}

func (f *fakeStore) ListUsers(_ context.Context, _ model.UserQuery) ([]model.User, int, error) {
	f.count("ListUsers")
	var users []model.User
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (f *fakeStore) CreateUser(_ context.Context, nu model.NewUser, studentCode string) (*model.User, error) {
	f.count("CreateUser")
	if f.conflicts > 0 {
		f.conflicts--
		return nil, db.ErrConflict
	}
	u := &model.User{
		ID: "user-" + nu.Name, Name: nu.Name, Role: nu.Role,
		CardID: nu.CardID, Email: nu.Email, HashedPassword: nu.HashedPassword,
	}
	switch nu.Role {
	case model.RoleStudent:
		u.StudentID = &studentCode
	case model.RoleTeacher:
		u.TeacherID = ptr("teacher-" + nu.Name)
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, id string, ch model.UserChanges) (*model.User, error) {
	f.count("UpdateUser")
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if ch.Name != nil {
		u.Name = *ch.Name
	}
	if ch.Image != nil {
		u.Image = ch.Image
	}
	if ch.HashedPassword != nil {
		u.HashedPassword = ch.HashedPassword
	}
	return u, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeStore) InsertClassSections(_ context.Context, rows []model.ClassSection) (int, error) {
	f.count("InsertClassSections")
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.sections = append(f.sections, rows...)
	return len(rows), nil
}

func (f *fakeStore) ListClassSeries(_ context.Context, q model.ClassQuery) ([]model.ClassSeries, int, error) {
	f.count("ListClassSeries")
	byCode := map[string]*model.ClassSeries{}
	var order []string
	for _, s := range f.sections {
		cs, ok := byCode[s.Code]
		if !ok {
			cs = &model.ClassSeries{Code: s.Code, Status: s.Status, StartDate: s.Date, EndDate: s.Date}
			byCode[s.Code] = cs
			order = append(order, s.Code)
		}
		cs.TotalSections++
		if s.Date.Before(cs.StartDate) {
			cs.StartDate = s.Date
		}
		if s.Date.After(cs.EndDate) {
			cs.EndDate = s.Date
		}
	}
	var out []model.ClassSeries
	for _, code := range order {
		out = append(out, *byCode[code])
	}
	return out, len(out), nil
}

func (f *fakeStore) detail(s model.ClassSection) model.ClassSectionDetail {
	return model.ClassSectionDetail{
		ID: s.ID, Code: s.Code, Status: s.Status,
		SubjectID: s.SubjectID, Subject: "Networks",
		TeacherID: s.TeacherID, Teacher: "Aoi",
		RoomID: s.RoomID, Room: "Lab 1",
		Date: s.Date, StartTime: s.StartTime, EndTime: s.EndTime,
	}
}

func (f *fakeStore) GetClassSection(_ context.Context, id string) (model.ClassSectionDetail, error) {
	f.count("GetClassSection")
	for _, s := range f.sections {
		if s.ID == id {
			return f.detail(s), nil
		}
	}
	return model.ClassSectionDetail{}, db.ErrNotFound
}

func (f *fakeStore) ListSeriesSections(_ context.Context, code string) ([]model.ClassSectionDetail, error) {
	f.count("ListSeriesSections")
	out := []model.ClassSectionDetail{}
	for _, s := range f.sections {
		if s.Code == code {
			out = append(out, f.detail(s))
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateClassSection(_ context.Context, id string, ch model.ClassSectionChanges) (model.ClassSection, error) {
	f.count("UpdateClassSection")
	for i, s := range f.sections {
		if s.ID == id {
			if ch.Status != nil {
				s.Status = *ch.Status
			}
			f.sections[i] = s
			return s, nil
		}
	}
	return model.ClassSection{}, db.ErrNotFound
}

func (f *fakeStore) DeleteClassSection(_ context.Context, id string) error {
	for i, s := range f.sections {
		if s.ID == id {
			f.sections = append(f.sections[:i], f.sections[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeStore) DeleteClassSeries(_ context.Context, code string) (int, error) {
	kept := f.sections[:0]
	n := 0
	for _, s := range f.sections {
		if s.Code == code {
			n++
			continue
		}
		kept = append(kept, s)
	}
	f.sections = kept
	if n == 0 {
		return 0, db.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) EnrollStudent(_ context.Context, code, studentID string) (int, error) {
	n := 0
	for _, s := range f.sections {
		if s.Code == code && !f.enrolled[s.ID+"/"+studentID] {
			f.enrolled[s.ID+"/"+studentID] = true
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UnenrollStudent(_ context.Context, code, studentID string) (int, error) {
	n := 0
	for _, s := range f.sections {
		if s.Code == code && f.enrolled[s.ID+"/"+studentID] {
			delete(f.enrolled, s.ID+"/"+studentID)
			n++
		}
	}
	if n == 0 {
		return 0, db.ErrNotFound
	}
	return n, nil
}

func (f *fakeStore) FindOngoingSection(_ context.Context, roomID string, date schedule.Date, at schedule.Clock) (model.ClassSection, error) {
	f.count("FindOngoingSection")
	for _, s := range f.sections {
		if s.RoomID == roomID && s.Date == date && s.Status != model.ClassCancelled &&
			!at.Before(s.StartTime) && at.Before(s.EndTime) {
			return s, nil
		}
	}
	return model.ClassSection{}, db.ErrNotFound
}

func (f *fakeStore) IsEnrolled(_ context.Context, classID, studentID string) (bool, error) {
	return f.enrolled[classID+"/"+studentID], nil
}

func (f *fakeStore) RecordAttendance(_ context.Context, classID, studentID string, status model.AttendanceStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := classID + "/" + studentID
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = status
	return true, nil
}

func (f *fakeStore) ListAttendance(_ context.Context, classID string) ([]model.Attendance, error) {
	f.count("ListAttendance")
	var out []model.Attendance
	for key, status := range f.records {
		if len(key) > len(classID) && key[:len(classID)] == classID {
			out = append(out, model.Attendance{ClassID: classID, StudentID: key[len(classID)+1:], Status: status})
		}
	}
	return out, nil
}

func (f *fakeStore) Recorded(classID, studentID string) (model.AttendanceStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.records[classID+"/"+studentID]
	return status, ok
}

type memoryFiles struct {
	saved map[string][]byte
}

func (m *memoryFiles) Save(_ context.Context, name string, r io.ReadSeeker) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = buf.Bytes()
	return "/uploads/" + name, nil
}
