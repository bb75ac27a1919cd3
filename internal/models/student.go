package models

import (
	"time"

	"github.com/lib/pq"
)

// EnrollmentStatus tracks where a student is in their tutoring programme.
type EnrollmentStatus string

const (
	EnrollmentActive         EnrollmentStatus = "active"
	EnrollmentPaused         EnrollmentStatus = "paused"
	EnrollmentCompleted      EnrollmentStatus = "completed"
	EnrollmentDropped        EnrollmentStatus = "dropped"
	EnrollmentHoldGraduation EnrollmentStatus = "hold_graduation"
	EnrollmentHoldDrop       EnrollmentStatus = "hold_drop"
)

// Student represents a learner waiting for, or attending, tutoring classes.
type Student struct {
	ID                string           `db:"id" json:"id"`
	FullName          string           `db:"full_name" json:"full_name"`
	Grade             string           `db:"grade" json:"grade"`
	Board             string           `db:"board" json:"board"`
	EnrolledSubjects  pq.StringArray   `db:"enrolled_subjects" json:"enrolled_subjects"`
	DifficultSubjects pq.StringArray   `db:"difficult_subjects" json:"difficult_subjects"`
	Active            bool             `db:"active" json:"active"`
	EnrollmentStatus  EnrollmentStatus `db:"enrollment_status" json:"enrollment_status"`
	DepartmentID      string           `db:"department_id" json:"department_id,omitempty"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// Allocatable reports whether the student may receive a tutor at all.
func (s Student) Allocatable() bool {
	return s.Active && s.EnrollmentStatus == EnrollmentActive
}

// StudentFilter scopes student snapshot queries.
type StudentFilter struct {
	DepartmentID string
	Grade        string
	Board        string
}
