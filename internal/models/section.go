package models

import "time"

// Section represents a student roster attached to a school, offering a set of
// courses. The teacher_id column is the legacy single-teacher model: when set,
// that teacher holds authority over every course in the section. The
// section_course_teachers table is the newer per-course model; both remain
// live until a real migration retires the legacy column.
type Section struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	DepartmentID *string   `db:"department_id" json:"department_id,omitempty"`
	Capacity     int       `db:"capacity" json:"capacity"`
	TeacherID    *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SectionRef carries display data for a section in joined listings.
type SectionRef struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// RosterEntry is one student row in a section roster listing.
type RosterEntry struct {
	StudentID string    `db:"student_id" json:"student_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}

// StudentSection describes a section a student currently belongs to, used for
// cross-section conflict reporting and current-section resolution.
type StudentSection struct {
	SectionID   string    `db:"section_id" json:"section_id"`
	SectionName string    `db:"section_name" json:"section_name"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
