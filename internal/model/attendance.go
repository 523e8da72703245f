package model

import "time"

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

type Attendance struct {
	ID          string           `db:"id"           json:"id"`
	ClassID     string           `db:"class_id"     json:"class_id"`
	StudentID   string           `db:"student_id"   json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name"`
	Status      AttendanceStatus `db:"status"       json:"status"`
	RecordedAt  time.Time        `db:"recorded_at"  json:"recorded_at"`
	Note        *string          `db:"note"         json:"note"`
}
