package models

import "time"

// ConflictKind classifies why a proposed slot cannot be booked.
type ConflictKind string

const (
	ConflictTutor            ConflictKind = "tutor_conflict"
	ConflictStudent          ConflictKind = "student_conflict"
	ConflictTutorUnavailable ConflictKind = "tutor_unavailable"
)

// Conflict describes a clash between a proposed slot and existing state.
type Conflict struct {
	Kind         ConflictKind `json:"kind"`
	Message      string       `json:"message"`
	CommitmentID string       `json:"commitment_id,omitempty"`
	StudentID    string       `json:"student_id,omitempty"`
}

// SlotProposal is a class the caller wants to book.
type SlotProposal struct {
	TutorID         string
	Date            time.Time
	StartTime       string
	DurationMinutes int
	StudentIDs      []string
	ExcludeID       string
}

// ScheduleConflictError is returned when a booking collides with existing classes.
// Reason is set when the booking is blocked by tutor load rather than a clash.
type ScheduleConflictError struct {
	Message   string     `json:"message"`
	Reason    string     `json:"reason,omitempty"`
	Conflicts []Conflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
