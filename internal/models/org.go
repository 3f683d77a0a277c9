package models

import "time"

// School represents a school within the university.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Department represents a department owned by a school.
type Department struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
