package service

import (
	"github.com/sourcegraph/conc/iter"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
)

const (
	defaultTutorCapacity = 8
	defaultMaxCandidates = 3
)

// AllocationEngineConfig tunes the greedy matcher.
type AllocationEngineConfig struct {
	Capacity        int
	MaxCandidates   int
	ParallelScoring bool
}

// AllocationEngine greedily assigns students to ranked, capacity-bound tutors.
// A single Plan call is not safe to share across goroutines; callers serialize runs.
type AllocationEngine struct {
	scorer        *CompatibilityScorer
	capacity      int
	maxCandidates int
	parallel      bool
}

// NewAllocationEngine constructs an engine, falling back to defaults for unset limits.
func NewAllocationEngine(scorer *CompatibilityScorer, cfg AllocationEngineConfig) *AllocationEngine {
	if scorer == nil {
		scorer = NewCompatibilityScorer(config.ScoringWeights{})
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultTutorCapacity
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	return &AllocationEngine{
		scorer:        scorer,
		capacity:      cfg.Capacity,
		maxCandidates: cfg.MaxCandidates,
		parallel:      cfg.ParallelScoring,
	}
}

// Capacity returns the per-tutor limit in force.
func (e *AllocationEngine) Capacity() int {
	return e.capacity
}

type rankedStudent struct {
	compatible bool
	candidates []models.MatchScore
}

// Plan processes students in the given order. load holds each tutor's
// pre-existing active commitments. The result depends only on the inputs.
func (e *AllocationEngine) Plan(students []models.Student, tutors []models.Tutor, load map[string]int) models.AllocationPlan {
	plan := models.AllocationPlan{
		Assignments: []models.Assignment{},
		Conflicts:   []models.AllocationConflict{},
	}

	remaining := make(map[string]int, len(tutors))
	for _, tutor := range tutors {
		remaining[tutor.ID] = e.capacity - load[tutor.ID]
	}

	rank := func(student *models.Student) rankedStudent {
		return e.rankCandidates(*student, tutors, remaining)
	}
	var ranked []rankedStudent
	if e.parallel && len(students) > 1 {
		ranked = iter.Map(students, rank)
	} else {
		ranked = make([]rankedStudent, len(students))
		for i := range students {
			ranked[i] = rank(&students[i])
		}
	}

	for i, student := range students {
		if !ranked[i].compatible {
			plan.Conflicts = append(plan.Conflicts, models.AllocationConflict{StudentID: student.ID, Reason: models.ReasonNoCompatibleTutor})
			continue
		}

		assigned := false
		for _, candidate := range ranked[i].candidates {
			if remaining[candidate.TutorID] <= 0 {
				continue
			}
			remaining[candidate.TutorID]--
			plan.Assignments = append(plan.Assignments, models.Assignment{
				StudentID: student.ID,
				TutorID:   candidate.TutorID,
				Score:     candidate.Total,
				Tier:      candidate.Tier,
			})
			assigned = true
			break
		}
		if !assigned {
			plan.Conflicts = append(plan.Conflicts, models.AllocationConflict{StudentID: student.ID, Reason: models.ReasonTutorsAtCapacity})
		}
	}

	return plan
}

// rankCandidates only reads remaining, which is not written until every
// student has been ranked.
func (e *AllocationEngine) rankCandidates(student models.Student, tutors []models.Tutor, remaining map[string]int) rankedStudent {
	result := rankedStudent{}
	candidates := make([]models.MatchScore, 0, len(tutors))
	for _, tutor := range tutors {
		score := e.scorer.Score(student, tutor, "")
		if score.Total <= 0 {
			continue
		}
		result.compatible = true
		if remaining[tutor.ID] <= 0 {
			continue
		}
		candidates = append(candidates, score)
	}
	sortScores(candidates)
	if len(candidates) > e.maxCandidates {
		candidates = candidates[:e.maxCandidates]
	}
	result.candidates = candidates
	return result
}
