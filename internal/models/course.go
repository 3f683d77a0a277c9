package models

import "time"

// Course represents a course offered by a department.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Code         string    `db:"code" json:"code"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail enriches Course with owning school and department names.
type CourseDetail struct {
	Course
	SchoolName     string `db:"school_name" json:"school_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// CourseRef carries display data for a course in joined listings.
type CourseRef struct {
	ID    string `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
	Code  string `db:"code" json:"code"`
}
