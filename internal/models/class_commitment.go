package models

import (
	"time"

	"github.com/lib/pq"
)

// CommitmentStatus is the lifecycle state of a class.
type CommitmentStatus string

const (
	CommitmentScheduled   CommitmentStatus = "scheduled"
	CommitmentOngoing     CommitmentStatus = "ongoing"
	CommitmentCompleted   CommitmentStatus = "completed"
	CommitmentCancelled   CommitmentStatus = "cancelled"
	CommitmentRescheduled CommitmentStatus = "rescheduled"
)

// ActiveCommitmentStatuses are the states that count towards conflicts and capacity.
var ActiveCommitmentStatuses = []string{string(CommitmentScheduled), string(CommitmentOngoing)}

// IsActive reports whether the status blocks the slot.
func (s CommitmentStatus) IsActive() bool {
	return s == CommitmentScheduled || s == CommitmentOngoing
}

// ClassCommitment is one scheduled class occurrence between a tutor and students.
type ClassCommitment struct {
	ID              string           `db:"id" json:"id"`
	TutorID         string           `db:"tutor_id" json:"tutor_id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	ParticipantIDs  pq.StringArray   `db:"participant_ids" json:"participant_ids"`
	Subject         string           `db:"subject" json:"subject,omitempty"`
	Date            time.Time        `db:"class_date" json:"date"`
	StartTime       string           `db:"start_time" json:"start_time"`
	DurationMinutes int              `db:"duration_minutes" json:"duration_minutes"`
	Status          CommitmentStatus `db:"status" json:"status"`
	PlanID          *string          `db:"plan_id" json:"plan_id,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// Interval returns the class span in minutes since midnight.
func (c ClassCommitment) Interval() (start, end int, ok bool) {
	start, ok = ParseMinutes(c.StartTime)
	if !ok {
		return 0, 0, false
	}
	return start, start + c.DurationMinutes, true
}

// EndsSameDay reports whether a class starting at startTime finishes by
// midnight. Unparseable start times are left to conflict detection.
func EndsSameDay(startTime string, durationMinutes int) bool {
	start, ok := ParseMinutes(startTime)
	return !ok || start+durationMinutes <= minutesPerDay
}

// Involves reports whether studentID attends the class as primary or participant.
func (c ClassCommitment) Involves(studentID string) bool {
	if c.StudentID == studentID {
		return true
	}
	for _, id := range c.ParticipantIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// SameDay compares calendar dates, ignoring clock and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CommitmentFilter scopes commitment lookups.
type CommitmentFilter struct {
	TutorID    string
	StudentIDs []string
	DateFrom   *time.Time
	DateTo     *time.Time
}
