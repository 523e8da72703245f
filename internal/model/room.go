package model

import "time"

type Room struct {
	ID        string    `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Capacity  int       `db:"capacity"   json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ListQuery is the search + pagination input shared by the simple listings.
type ListQuery struct {
	Search string `json:"search,omitempty"`
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
}

type RoomChanges struct {
	Name     *string
	Capacity *int
}

type Subject struct {
	ID        string    `db:"id"         json:"id"`
	Code      string    `db:"code"       json:"code"`
	Name      string    `db:"name"       json:"name"`
	Credit    int       `db:"credit"     json:"credit"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type SubjectChanges struct {
	Name   *string
	Credit *int
}
