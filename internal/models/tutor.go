package models

import (
	"time"

	"github.com/lib/pq"
)

// TutorStatus is the onboarding state of a tutor.
type TutorStatus string

const (
	TutorPending   TutorStatus = "pending"
	TutorActive    TutorStatus = "active"
	TutorInactive  TutorStatus = "inactive"
	TutorSuspended TutorStatus = "suspended"
)

// Tutor represents an instructor available for allocation.
type Tutor struct {
	ID               string         `db:"id" json:"id"`
	FullName         string         `db:"full_name" json:"full_name"`
	Subjects         pq.StringArray `db:"subjects" json:"subjects"`
	Grades           pq.StringArray `db:"grades" json:"grades"`
	Boards           pq.StringArray `db:"boards" json:"boards"`
	Availability     Availability   `db:"availability" json:"availability"`
	Status           TutorStatus    `db:"status" json:"status"`
	Rating           float64        `db:"rating" json:"rating"`
	TestScore        *float64       `db:"test_score" json:"test_score,omitempty"`
	TotalClasses     int            `db:"total_classes" json:"total_classes"`
	CompletedClasses int            `db:"completed_classes" json:"completed_classes"`
	Qualification    string         `db:"qualification" json:"qualification,omitempty"`
	DepartmentID     string         `db:"department_id" json:"department_id,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// CompletionRate returns completed/total classes as a percentage.
func (t Tutor) CompletionRate() float64 {
	if t.TotalClasses <= 0 {
		return 0
	}
	return float64(t.CompletedClasses) * 100 / float64(t.TotalClasses)
}

// TutorFilter scopes tutor snapshot queries.
type TutorFilter struct {
	DepartmentID string
	Subject      string
}
