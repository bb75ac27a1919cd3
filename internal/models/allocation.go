package models

import "time"

// CompatibilityTier is a display bucket derived from a match score.
type CompatibilityTier string

const (
	TierNone      CompatibilityTier = "none"
	TierBasic     CompatibilityTier = "basic"
	TierFair      CompatibilityTier = "fair"
	TierGood      CompatibilityTier = "good"
	TierVeryGood  CompatibilityTier = "very_good"
	TierExcellent CompatibilityTier = "excellent"
)

// TierForScore maps a 0-100 score onto its tier.
func TierForScore(total float64) CompatibilityTier {
	switch {
	case total >= 85:
		return TierExcellent
	case total >= 70:
		return TierVeryGood
	case total >= 55:
		return TierGood
	case total >= 40:
		return TierFair
	case total > 0:
		return TierBasic
	default:
		return TierNone
	}
}

// MatchScore explains how well a tutor fits a student.
type MatchScore struct {
	StudentID string            `json:"student_id"`
	TutorID   string            `json:"tutor_id"`
	Total     float64           `json:"total"`
	Reasons   []string          `json:"reasons"`
	Tier      CompatibilityTier `json:"tier"`
}

// Allocation failure reasons.
const (
	ReasonNoCompatibleTutor = "no_compatible_tutor"
	ReasonTutorsAtCapacity  = "all_compatible_tutors_at_capacity"
)

// Assignment pairs a student with the selected tutor.
type Assignment struct {
	StudentID string            `json:"student_id"`
	TutorID   string            `json:"tutor_id"`
	Score     float64           `json:"score"`
	Tier      CompatibilityTier `json:"tier"`
}

// AllocationConflict records a student that could not be placed.
type AllocationConflict struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// AllocationPlan is the ephemeral outcome of one allocation run.
type AllocationPlan struct {
	Assignments []Assignment         `json:"assignments"`
	Conflicts   []AllocationConflict `json:"conflicts"`
}

// AllocationProposal is a stored dry-run plan awaiting commit.
type AllocationProposal struct {
	ID        string         `json:"id"`
	Plan      AllocationPlan `json:"plan"`
	Capacity  int            `json:"capacity"`
	CreatedBy string         `json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Assignment returns the planned assignment for studentID.
func (p *AllocationProposal) Assignment(studentID string) (Assignment, bool) {
	if p == nil {
		return Assignment{}, false
	}
	for _, a := range p.Plan.Assignments {
		if a.StudentID == studentID {
			return a, true
		}
	}
	return Assignment{}, false
}

// SubjectAllocation counts allocated and waiting students per subject.
type SubjectAllocation struct {
	Subject     string `json:"subject"`
	Allocated   int    `json:"allocated"`
	Unallocated int    `json:"unallocated"`
}

// TutorUtilization reports a tutor's active load against capacity.
type TutorUtilization struct {
	TutorID     string  `json:"tutor_id"`
	TutorName   string  `json:"tutor_name"`
	Committed   int     `json:"committed"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// AllocationSummary aggregates allocation state for dashboards.
type AllocationSummary struct {
	TotalStudents        int                 `json:"total_students"`
	Allocated            int                 `json:"allocated"`
	Unallocated          int                 `json:"unallocated"`
	AllocationPercentage float64             `json:"allocation_percentage"`
	Urgent               int                 `json:"urgent"`
	Subjects             []SubjectAllocation `json:"subjects"`
	Tutors               []TutorUtilization  `json:"tutors"`
	GeneratedAt          time.Time           `json:"generated_at"`
}

// AllocationSnapshot is a consistent point-in-time view used for planning
// and reporting.
type AllocationSnapshot struct {
	Students    []Student         `json:"students"`
	Tutors      []Tutor           `json:"tutors"`
	Commitments []ClassCommitment `json:"commitments"`
}
