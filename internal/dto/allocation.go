package dto

import "github.com/noah-isme/tutor-allocation-api/internal/models"

// PlanAllocationRequest scopes a dry-run allocation.
type PlanAllocationRequest struct {
	DepartmentID string `json:"department_id"`
	Grade        string `json:"grade"`
	Board        string `json:"board"`
}

// CommitAllocationEntry schedules the first class for one planned assignment.
type CommitAllocationEntry struct {
	StudentID       string `json:"student_id" validate:"required"`
	Subject         string `json:"subject"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=15,max=480"`
}

// CommitAllocationRequest accepts a subset of a stored plan.
type CommitAllocationRequest struct {
	PlanID                   string                  `json:"plan_id" validate:"required"`
	Entries                  []CommitAllocationEntry `json:"entries" validate:"required,min=1,dive"`
	AllowOutsideAvailability bool                    `json:"allow_outside_availability"`
}

// CommitAllocationResponse lists the classes created by a commit.
type CommitAllocationResponse struct {
	PlanID  string                   `json:"plan_id"`
	Created []models.ClassCommitment `json:"created"`
}

// CommitEntryConflict explains why an entry blocked the commit.
type CommitEntryConflict struct {
	StudentID string            `json:"student_id"`
	TutorID   string            `json:"tutor_id,omitempty"`
	Conflicts []models.Conflict `json:"conflicts,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// TutorMatch is one ranked tutor in the match explorer.
type TutorMatch struct {
	models.MatchScore
	TutorName    string                     `json:"tutor_name"`
	Availability models.AvailabilitySummary `json:"availability"`
}

// StudentMatchesResponse lists ranked tutors for one student.
type StudentMatchesResponse struct {
	StudentID string       `json:"student_id"`
	Subject   string       `json:"subject,omitempty"`
	Matches   []TutorMatch `json:"matches"`
}
