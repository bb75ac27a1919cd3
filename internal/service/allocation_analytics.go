package service

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

const defaultUrgentAfter = 5 * 24 * time.Hour

// AllocationAnalytics aggregates allocation state for reporting. Pure read.
type AllocationAnalytics struct {
	capacity    int
	urgentAfter time.Duration
}

// NewAllocationAnalytics constructs the aggregator.
func NewAllocationAnalytics(capacity int, urgentAfter time.Duration) *AllocationAnalytics {
	if capacity <= 0 {
		capacity = defaultTutorCapacity
	}
	if urgentAfter <= 0 {
		urgentAfter = defaultUrgentAfter
	}
	return &AllocationAnalytics{capacity: capacity, urgentAfter: urgentAfter}
}

// Summarize counts allocatable students, splitting them by whether they hold
// an active commitment, and reports tutor load against capacity.
func (a *AllocationAnalytics) Summarize(students []models.Student, commitments []models.ClassCommitment, tutors []models.Tutor, now time.Time) models.AllocationSummary {
	allocated := AllocatedStudentIDs(commitments)
	load := ActiveLoadByTutor(commitments)

	summary := models.AllocationSummary{
		Subjects:    []models.SubjectAllocation{},
		Tutors:      make([]models.TutorUtilization, 0, len(tutors)),
		GeneratedAt: now,
	}

	subjects := map[string]*models.SubjectAllocation{}
	for _, student := range students {
		if !student.Allocatable() {
			continue
		}
		summary.TotalStudents++
		_, isAllocated := allocated[student.ID]
		if isAllocated {
			summary.Allocated++
		} else {
			summary.Unallocated++
			if now.Sub(student.CreatedAt) > a.urgentAfter {
				summary.Urgent++
			}
		}

		seen := map[string]struct{}{}
		for _, subject := range student.EnrolledSubjects {
			key := normalizeTerm(subject)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			entry, ok := subjects[key]
			if !ok {
				entry = &models.SubjectAllocation{Subject: strings.TrimSpace(subject)}
				subjects[key] = entry
			}
			if isAllocated {
				entry.Allocated++
			} else {
				entry.Unallocated++
			}
		}
	}

	if summary.TotalStudents > 0 {
		summary.AllocationPercentage = roundPoints(float64(summary.Allocated) / float64(summary.TotalStudents) * 100)
	}

	keys := make([]string, 0, len(subjects))
	for key := range subjects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		summary.Subjects = append(summary.Subjects, *subjects[key])
	}

	for _, tutor := range tutors {
		committed := load[tutor.ID]
		summary.Tutors = append(summary.Tutors, models.TutorUtilization{
			TutorID:     tutor.ID,
			TutorName:   tutor.FullName,
			Committed:   committed,
			Capacity:    a.capacity,
			Utilization: roundPoints(float64(committed) / float64(a.capacity) * 100),
		})
	}
	sort.Slice(summary.Tutors, func(i, j int) bool { return summary.Tutors[i].TutorID < summary.Tutors[j].TutorID })

	return summary
}

// ActiveLoadByTutor counts scheduled and ongoing commitments per tutor.
func ActiveLoadByTutor(commitments []models.ClassCommitment) map[string]int {
	load := map[string]int{}
	for _, c := range commitments {
		if c.Status.IsActive() {
			load[c.TutorID]++
		}
	}
	return load
}

// AllocatedStudentIDs returns every student attending an active commitment.
func AllocatedStudentIDs(commitments []models.ClassCommitment) map[string]struct{} {
	ids := map[string]struct{}{}
	for _, c := range commitments {
		if !c.Status.IsActive() {
			continue
		}
		ids[c.StudentID] = struct{}{}
		for _, id := range c.ParticipantIDs {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// WaitingOrder sorts students oldest-enrolled first, ties by id.
func WaitingOrder(students []models.Student) []models.Student {
	sorted := append([]models.Student(nil), students...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// UnallocatedStudents keeps allocatable students without an active commitment.
func UnallocatedStudents(students []models.Student, commitments []models.ClassCommitment) []models.Student {
	allocated := AllocatedStudentIDs(commitments)
	out := make([]models.Student, 0, len(students))
	for _, student := range students {
		if _, ok := allocated[student.ID]; ok || !student.Allocatable() {
			continue
		}
		out = append(out, student)
	}
	return out
}
