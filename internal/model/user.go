package model

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is a person known to the system. Students and teachers additionally
// own a row in their role table, surfaced here as StudentID / TeacherID.
type User struct {
	ID             string    `db:"id"              json:"id"`
	CardID         *string   `db:"card_id"         json:"card_id"`
	StudentID      *string   `db:"student_id"      json:"student_id"`
	TeacherID      *string   `db:"teacher_id"      json:"teacher_id"`
	Role           Role      `db:"role"            json:"role"`
	Name           string    `db:"name"            json:"name"`
	Email          *string   `db:"email"           json:"email"`
	Image          *string   `db:"image"           json:"image"`
	HashedPassword *string   `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"      json:"updated_at"`
}

type UserQuery struct {
	Search string `json:"search,omitempty"`
	Role   Role   `json:"role,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type NewUser struct {
	Name           string
	CardID         *string
	Role           Role
	Email          *string
	HashedPassword *string
}

// UserChanges holds the fields of a partial update; nil means unchanged.
type UserChanges struct {
	Name           *string
	CardID         *string
	Email          *string
	Image          *string
	HashedPassword *string
}
