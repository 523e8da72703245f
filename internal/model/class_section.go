package model

import (
	"time"

	"github.com/Nixie-Tech-LLC/kiriha/internal/schedule"
)

type ClassStatus string

const (
	ClassWaiting   ClassStatus = "waiting"
	ClassLocked    ClassStatus = "locked"
	ClassCompleted ClassStatus = "completed"
	ClassCancelled ClassStatus = "cancelled"
)

func (s ClassStatus) Valid() bool {
	switch s {
	case ClassWaiting, ClassLocked, ClassCompleted, ClassCancelled:
		return true
	}
	return false
}

// ClassSection is one dated session of a class series. Sessions created by the
// same request share Code.
type ClassSection struct {
	ID        string         `db:"id"         json:"id"`
	Code      string         `db:"code"       json:"code"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	RoomID    string         `db:"room_id"    json:"room_id"`
	Status    ClassStatus    `db:"status"     json:"status"`
	Date      schedule.Date  `db:"date"       json:"date"`
	StartTime schedule.Clock `db:"start_time" json:"start_time"`
	EndTime   schedule.Clock `db:"end_time"   json:"end_time"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassSectionDetail is a section joined with the names it points at.
type ClassSectionDetail struct {
	ID        string         `db:"id"         json:"id"`
	Code      string         `db:"code"       json:"code"`
	Status    ClassStatus    `db:"status"     json:"status"`
	SubjectID string         `db:"subject_id" json:"subject_id"`
	Subject   string         `db:"subject"    json:"subject"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	Teacher   string         `db:"teacher"    json:"teacher"`
	RoomID    string         `db:"room_id"    json:"room_id"`
	Room      string         `db:"room"       json:"room"`
	Date      schedule.Date  `db:"date"       json:"date"`
	StartTime schedule.Clock `db:"start_time" json:"start_time"`
	EndTime   schedule.Clock `db:"end_time"   json:"end_time"`
}

// ClassSeries summarizes every section sharing one code.
type ClassSeries struct {
	Code          string        `db:"code"           json:"code"`
	Status        ClassStatus   `db:"status"         json:"status"`
	Subject       string        `db:"subject"        json:"subject"`
	Teachers      []string      `db:"-"              json:"teachers"`
	Rooms         []string      `db:"-"              json:"rooms"`
	StartDate     schedule.Date `db:"start_date"     json:"start_date"`
	EndDate       schedule.Date `db:"end_date"       json:"end_date"`
	TotalSections int           `db:"total_sections" json:"total_sections"`
}

type ClassQuery struct {
	RoomID    string `json:"room_id,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

type ClassSectionChanges struct {
	SubjectID *string
	TeacherID *string
	RoomID    *string
	Status    *ClassStatus
	Date      *schedule.Date
	StartTime *schedule.Clock
	EndTime   *schedule.Clock
}

// CreatedSeries is what a class creation call reports back.
type CreatedSeries struct {
	Code             string `json:"code"`
	NumberOfSections int    `json:"number_of_sections"`
}
