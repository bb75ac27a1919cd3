package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
)

// eightyPointTutor scores 25+20+25+10 against studentFixture.
func eightyPointTutor(id string) models.Tutor {
	tutor := tutorFixture(id)
	tutor.TestScore = nil
	tutor.TotalClasses = 0
	tutor.CompletedClasses = 0
	return tutor
}

func TestAllocationEngineCapacityExhaustion(t *testing.T) {
	engine := NewAllocationEngine(NewCompatibilityScorer(config.DefaultWeights()), AllocationEngineConfig{Capacity: 1, MaxCandidates: 3})

	students := make([]models.Student, 0, 10)
	for i := 9; i >= 0; i-- {
		students = append(students, studentFixture(fmt.Sprintf("s%02d", i), time.Duration(i)*time.Hour))
	}
	tutors := []models.Tutor{eightyPointTutor("t2"), eightyPointTutor("t1")}

	plan := engine.Plan(WaitingOrder(students), tutors, nil)

	require.Len(t, plan.Assignments, 2)
	assert.Equal(t, models.Assignment{StudentID: "s00", TutorID: "t1", Score: 80, Tier: models.TierVeryGood}, plan.Assignments[0])
	assert.Equal(t, models.Assignment{StudentID: "s01", TutorID: "t2", Score: 80, Tier: models.TierVeryGood}, plan.Assignments[1])
	require.Len(t, plan.Conflicts, 8)
	for i, conflict := range plan.Conflicts {
		assert.Equal(t, fmt.Sprintf("s%02d", i+2), conflict.StudentID)
		assert.Equal(t, models.ReasonTutorsAtCapacity, conflict.Reason)
	}
}

func TestAllocationEngineNoCompatibleTutor(t *testing.T) {
	engine := NewAllocationEngine(nil, AllocationEngineConfig{})
	tutor := tutorFixture("t1")
	tutor.Grades = []string{"9"}

	plan := engine.Plan([]models.Student{studentFixture("s1", 0)}, []models.Tutor{tutor}, nil)

	assert.Empty(t, plan.Assignments)
	assert.Equal(t, []models.AllocationConflict{{StudentID: "s1", Reason: models.ReasonNoCompatibleTutor}}, plan.Conflicts)
}

func TestAllocationEngineRespectsExistingLoad(t *testing.T) {
	engine := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: 8})
	full := tutorFixture("full")
	spare := tutorFixture("spare")
	spare.Rating = 3.0

	plan := engine.Plan(
		[]models.Student{studentFixture("s1", 0), studentFixture("s2", time.Hour)},
		[]models.Tutor{full, spare},
		map[string]int{"full": 8, "spare": 7},
	)

	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "spare", plan.Assignments[0].TutorID)
	assert.Equal(t, "s1", plan.Assignments[0].StudentID)
	assert.Equal(t, []models.AllocationConflict{{StudentID: "s2", Reason: models.ReasonTutorsAtCapacity}}, plan.Conflicts)
}

func TestAllocationEngineOnlyWalksTopCandidates(t *testing.T) {
	engine := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: 1, MaxCandidates: 1})
	best := tutorFixture("best")
	second := tutorFixture("second")
	second.Rating = 0

	plan := engine.Plan(
		[]models.Student{studentFixture("s1", 0), studentFixture("s2", time.Hour)},
		[]models.Tutor{second, best},
		nil,
	)

	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "best", plan.Assignments[0].TutorID)
	assert.Equal(t, models.ReasonTutorsAtCapacity, plan.Conflicts[0].Reason)
}

func randomAllocationInput(seed int64) ([]models.Student, []models.Tutor, map[string]int) {
	rng := rand.New(rand.NewSource(seed))
	grades := []string{"9", "10", "11"}
	subjects := []string{"Mathematics", "Physics", "Chemistry", "English"}

	students := make([]models.Student, 0, 60)
	for i := 0; i < 60; i++ {
		student := studentFixture(fmt.Sprintf("s%03d", i), time.Duration(rng.Intn(500))*time.Hour)
		student.Grade = grades[rng.Intn(len(grades))]
		student.EnrolledSubjects = []string{subjects[rng.Intn(len(subjects))]}
		students = append(students, student)
	}

	tutors := make([]models.Tutor, 0, 8)
	load := map[string]int{}
	for i := 0; i < 8; i++ {
		tutor := tutorFixture(fmt.Sprintf("t%02d", i))
		tutor.Grades = []string{grades[rng.Intn(len(grades))], grades[rng.Intn(len(grades))]}
		tutor.Subjects = []string{subjects[rng.Intn(len(subjects))]}
		tutor.Rating = float64(rng.Intn(6))
		tutors = append(tutors, tutor)
		load[tutor.ID] = rng.Intn(9)
	}
	return WaitingOrder(students), tutors, load
}

func TestAllocationEngineCapacityProperty(t *testing.T) {
	engine := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: 8, MaxCandidates: 3})

	for seed := int64(1); seed <= 20; seed++ {
		students, tutors, load := randomAllocationInput(seed)
		plan := engine.Plan(students, tutors, load)

		assigned := map[string]int{}
		for _, a := range plan.Assignments {
			assigned[a.TutorID]++
		}
		for _, tutor := range tutors {
			assert.LessOrEqual(t, load[tutor.ID]+assigned[tutor.ID], 8, "seed %d tutor %s", seed, tutor.ID)
		}
		assert.Equal(t, len(students), len(plan.Assignments)+len(plan.Conflicts))
	}
}

func TestAllocationEngineDeterministic(t *testing.T) {
	sequential := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: 8, MaxCandidates: 3})
	parallel := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: 8, MaxCandidates: 3, ParallelScoring: true})
	students, tutors, load := randomAllocationInput(7)

	first, err := json.Marshal(sequential.Plan(students, tutors, load))
	require.NoError(t, err)
	second, err := json.Marshal(sequential.Plan(students, tutors, load))
	require.NoError(t, err)
	concurrent, err := json.Marshal(parallel.Plan(students, tutors, load))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, concurrent)
}

func TestAllocationEngineDefaults(t *testing.T) {
	engine := NewAllocationEngine(nil, AllocationEngineConfig{Capacity: -1})
	assert.Equal(t, defaultTutorCapacity, engine.Capacity())

	plan := engine.Plan(nil, nil, nil)
	assert.NotNil(t, plan.Assignments)
	assert.NotNil(t, plan.Conflicts)
}
