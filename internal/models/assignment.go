package models

import "time"

// AssignmentType tags which authority model produced an assignment entry.
type AssignmentType string

const (
	// AssignmentTypeDirect is the legacy whole-section model: the teacher is
	// set directly on the section and holds every course in it.
	AssignmentTypeDirect AssignmentType = "direct"
	// AssignmentTypeCourseSpecific is the join-table model: authority over a
	// single course within a section.
	AssignmentTypeCourseSpecific AssignmentType = "course_specific"
)

// SectionCourseTeacher binds one teacher to one course within one section.
// Rows are never hard-deleted; removal flips is_active so assignment history
// survives for audit. At most one active row may exist per (section, course),
// enforced by a partial unique index over the active subset.
type SectionCourseTeacher struct {
	ID           string     `db:"id" json:"id"`
	SectionID    string     `db:"section_id" json:"section_id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	AssignedBy   string     `db:"assigned_by" json:"assigned_by"`
	AssignedAt   time.Time  `db:"assigned_at" json:"assigned_at"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	Semester     string     `db:"semester" json:"semester"`
	RemovedAt    *time.Time `db:"removed_at" json:"removed_at,omitempty"`
	RemovedBy    *string    `db:"removed_by" json:"removed_by,omitempty"`
}

// SectionAssignmentDetail enriches an active assignment row with display data.
type SectionAssignmentDetail struct {
	SectionCourseTeacher
	SectionName string `db:"section_name" json:"section_name"`
	CourseTitle string `db:"course_title" json:"course_title"`
	CourseCode  string `db:"course_code" json:"course_code"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// AssignResult reports the outcome of an assign call. AlreadyAssigned marks
// the idempotent case where the same teacher already held the pair.
type AssignResult struct {
	Assignment      *SectionCourseTeacher `json:"assignment"`
	AlreadyAssigned bool                  `json:"already_assigned"`
	Reactivated     bool                  `json:"reactivated"`
}

// TeacherSectionAssignments is one section's entry in a teacher's reconciled
// assignment surface: the union of the legacy direct model and the
// course-specific join rows, with courses de-duplicated by id.
type TeacherSectionAssignments struct {
	Section        SectionRef     `json:"section"`
	AssignmentType AssignmentType `json:"assignment_type"`
	Courses        []CourseRef    `json:"courses"`
}
