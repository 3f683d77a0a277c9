package models

import "time"

// LockTargetType identifies the kind of content a lock applies to.
type LockTargetType string

const (
	LockTargetQuiz  LockTargetType = "QUIZ"
	LockTargetVideo LockTargetType = "VIDEO"
)

// ContentLock tracks unlock escalation for a (student, quiz-or-video) lock.
// There is no stored unlocked state: each unlock is an event, and a student
// who fails again gets a fresh lock record. The teacher counter is
// monotonically non-decreasing and bounded by the configured quota; nothing
// ever decrements it. Dean unlocks are unbounded and tracked separately.
type ContentLock struct {
	ID                  string         `db:"id" json:"id"`
	StudentID           string         `db:"student_id" json:"student_id"`
	TargetType          LockTargetType `db:"target_type" json:"target_type"`
	TargetID            string         `db:"target_id" json:"target_id"`
	Reason              string         `db:"reason" json:"reason"`
	TeacherUnlockCount  int            `db:"teacher_unlock_count" json:"teacher_unlock_count"`
	DeanUnlockCount     int            `db:"dean_unlock_count" json:"dean_unlock_count"`
	LastTeacherUnlockBy *string        `db:"last_teacher_unlock_by" json:"last_teacher_unlock_by,omitempty"`
	LastTeacherUnlockAt *time.Time     `db:"last_teacher_unlock_at" json:"last_teacher_unlock_at,omitempty"`
	LastDeanUnlockBy    *string        `db:"last_dean_unlock_by" json:"last_dean_unlock_by,omitempty"`
	LastDeanUnlockAt    *time.Time     `db:"last_dean_unlock_at" json:"last_dean_unlock_at,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
}
