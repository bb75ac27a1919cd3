package dto

import "github.com/noah-isme/tutor-allocation-api/internal/models"

// ConflictCheckRequest asks whether a slot can be booked.
type ConflictCheckRequest struct {
	TutorID             string   `json:"tutor_id" validate:"required"`
	StudentIDs          []string `json:"student_ids" validate:"omitempty,dive,required"`
	Date                string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime           string   `json:"start_time" validate:"required"`
	DurationMinutes     int      `json:"duration_minutes" validate:"required,min=1,max=720"`
	ExcludeCommitmentID string   `json:"exclude_commitment_id"`
}

// ConflictCheckResponse reports detected conflicts, one per kind at most.
type ConflictCheckResponse struct {
	HasConflict bool              `json:"has_conflict"`
	Conflicts   []models.Conflict `json:"conflicts"`
}

// CreateClassRequest books a new class.
type CreateClassRequest struct {
	TutorID                  string   `json:"tutor_id" validate:"required"`
	StudentID                string   `json:"student_id" validate:"required"`
	ParticipantIDs           []string `json:"participant_ids" validate:"omitempty,dive,required"`
	Subject                  string   `json:"subject"`
	Date                     string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime                string   `json:"start_time" validate:"required"`
	DurationMinutes          int      `json:"duration_minutes" validate:"required,min=15,max=480"`
	AllowOutsideAvailability bool     `json:"allow_outside_availability"`
}

// RescheduleClassRequest moves an existing class.
type RescheduleClassRequest struct {
	Date                     string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime                string `json:"start_time" validate:"required"`
	DurationMinutes          int    `json:"duration_minutes" validate:"required,min=15,max=480"`
	AllowOutsideAvailability bool   `json:"allow_outside_availability"`
}
