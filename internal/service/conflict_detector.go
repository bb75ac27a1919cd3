package service

import (
	"fmt"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

// ConflictDetector checks a proposed class against existing commitments and
// the tutor's declared availability. It never mutates its inputs.
type ConflictDetector struct{}

// NewConflictDetector constructs a detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Overlaps applies the half-open interval test; touching endpoints do not overlap.
func Overlaps(start1, end1, start2, end2 int) bool {
	return start1 < end2 && start2 < end1
}

// FindConflicts returns at most one conflict per kind, ordered tutor_conflict,
// student_conflict, tutor_unavailable. A nil tutor skips the availability check.
func (d *ConflictDetector) FindConflicts(proposal models.SlotProposal, tutor *models.Tutor, commitments []models.ClassCommitment) []models.Conflict {
	start, ok := models.ParseMinutes(proposal.StartTime)
	if !ok || proposal.DurationMinutes <= 0 {
		return []models.Conflict{{
			Kind:    models.ConflictTutorUnavailable,
			Message: fmt.Sprintf("start time %q with duration %d does not match any available slot", proposal.StartTime, proposal.DurationMinutes),
		}}
	}
	end := start + proposal.DurationMinutes

	relevant := make([]models.ClassCommitment, 0, len(commitments))
	for _, c := range commitments {
		if c.ID != "" && c.ID == proposal.ExcludeID {
			continue
		}
		if !c.Status.IsActive() || !models.SameDay(c.Date, proposal.Date) {
			continue
		}
		relevant = append(relevant, c)
	}

	var conflicts []models.Conflict
	if conflict := tutorDoubleBooking(proposal.TutorID, start, end, relevant); conflict != nil {
		conflicts = append(conflicts, *conflict)
	}
	if conflict := studentDoubleBooking(proposal.StudentIDs, start, end, relevant); conflict != nil {
		conflicts = append(conflicts, *conflict)
	}
	if tutor != nil && !tutor.Availability.Covers(proposal.Date.Weekday(), start, end) {
		message := fmt.Sprintf("tutor is not available on %s from %s to %s",
			models.WeekdayName(proposal.Date.Weekday()), models.FormatMinutes(start), models.FormatMinutes(end))
		if tutor.Availability.IsEmpty() {
			message = "tutor has no availability schedule"
		}
		conflicts = append(conflicts, models.Conflict{Kind: models.ConflictTutorUnavailable, Message: message})
	}
	return conflicts
}

// FindConflict returns the first conflict in FindConflicts order, or nil.
func (d *ConflictDetector) FindConflict(proposal models.SlotProposal, tutor *models.Tutor, commitments []models.ClassCommitment) *models.Conflict {
	conflicts := d.FindConflicts(proposal, tutor, commitments)
	if len(conflicts) == 0 {
		return nil
	}
	return &conflicts[0]
}

func tutorDoubleBooking(tutorID string, start, end int, commitments []models.ClassCommitment) *models.Conflict {
	for _, c := range commitments {
		if c.TutorID != tutorID {
			continue
		}
		if existingStart, existingEnd, ok := c.Interval(); ok && Overlaps(start, end, existingStart, existingEnd) {
			return &models.Conflict{
				Kind:         models.ConflictTutor,
				Message:      fmt.Sprintf("tutor already has a class from %s to %s", models.FormatMinutes(existingStart), models.FormatMinutes(existingEnd)),
				CommitmentID: c.ID,
			}
		}
	}
	return nil
}

func studentDoubleBooking(studentIDs []string, start, end int, commitments []models.ClassCommitment) *models.Conflict {
	for _, studentID := range studentIDs {
		for _, c := range commitments {
			if !c.Involves(studentID) {
				continue
			}
			if existingStart, existingEnd, ok := c.Interval(); ok && Overlaps(start, end, existingStart, existingEnd) {
				return &models.Conflict{
					Kind:         models.ConflictStudent,
					Message:      fmt.Sprintf("student %s already has a class from %s to %s", studentID, models.FormatMinutes(existingStart), models.FormatMinutes(existingEnd)),
					CommitmentID: c.ID,
					StudentID:    studentID,
				}
			}
		}
	}
	return nil
}
