package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
)

func TestCompatibilityScorerPerfectMatch(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())

	score := scorer.Score(studentFixture("s1", 0), tutorFixture("t1"), "")

	assert.Equal(t, 100.0, score.Total)
	assert.Equal(t, models.TierExcellent, score.Tier)
	assert.Equal(t, []string{
		ReasonGradeMatch,
		ReasonBoardMatch,
		"teaches mathematics",
		"test score 92",
		"rated 4.6",
		"100% class completion",
	}, score.Reasons)
}

func TestCompatibilityScorerGradeGate(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	tutor := tutorFixture("t1")
	tutor.Grades = []string{"9"}

	score := scorer.Score(studentFixture("s1", 0), tutor, "Mathematics")

	assert.Zero(t, score.Total)
	assert.Equal(t, models.TierNone, score.Tier)
	assert.Equal(t, []string{ReasonGradeMismatch}, score.Reasons)
}

func TestCompatibilityScorerBoardGate(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	tutor := tutorFixture("t1")
	tutor.Boards = []string{"ICSE"}

	score := scorer.Score(studentFixture("s1", 0), tutor, "")
	assert.Zero(t, score.Total)
	assert.Equal(t, []string{ReasonBoardMismatch}, score.Reasons)

	tutor.Boards = []string{" cbse "}
	assert.Equal(t, 100.0, scorer.Score(studentFixture("s1", 0), tutor, "").Total)
}

func TestCompatibilityScorerMissingMandatoryFields(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	tutor := tutorFixture("t1")
	tutor.Grades = nil
	tutor.Boards = nil

	student := studentFixture("s1", 0)
	student.Grade = "  "
	assert.Zero(t, scorer.Score(student, tutor, "").Total)

	student = studentFixture("s1", 0)
	student.Board = ""
	assert.Zero(t, scorer.Score(student, tutor, "").Total)
}

func TestCompatibilityScorerEmptyTutorListsPassGates(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	tutor := tutorFixture("t1")
	tutor.Grades = nil
	tutor.Boards = nil

	student := studentFixture("s1", 0)
	student.Grade = "Grade 10"

	score := scorer.Score(student, tutor, "")
	assert.Equal(t, 100.0, score.Total)
}

func TestCompatibilityScorerSubjectMatching(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	tutor := tutorFixture("t1")
	tutor.TestScore = nil
	tutor.Rating = 0
	tutor.TotalClasses = 0

	student := studentFixture("s1", 0)
	student.EnrolledSubjects = []string{"Chemistry"}

	score := scorer.Score(student, tutor, "math")
	assert.Equal(t, 70.0, score.Total)
	assert.Contains(t, score.Reasons, "specializes in math")

	score = scorer.Score(student, tutor, "")
	assert.Equal(t, 45.0, score.Total)
	assert.Equal(t, models.TierFair, score.Tier)

	student.EnrolledSubjects = []string{"Math"}
	score = scorer.Score(student, tutor, "")
	assert.Equal(t, 62.0, score.Total)
	assert.Contains(t, score.Reasons, "related subject expertise")
	assert.Equal(t, models.TierGood, score.Tier)
}

func TestCompatibilityScorerPerformanceTiers(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	base := 70.0

	cases := []struct {
		name      string
		testScore *float64
		rating    float64
		total     int
		completed int
		expected  float64
	}{
		{name: "upper tiers", testScore: floatPtr(86), rating: 4.0, total: 10, completed: 9, expected: base + 12 + 7 + 4},
		{name: "lower tiers", testScore: floatPtr(70), rating: 3.5, total: 20, completed: 17, expected: base + 6 + 5 + 3},
		{name: "below tiers", testScore: floatPtr(69.9), rating: 3.4, total: 20, completed: 10, expected: base},
		{name: "too few classes", testScore: nil, rating: 0, total: 4, completed: 4, expected: base},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tutor := tutorFixture("t1")
			tutor.TestScore = tc.testScore
			tutor.Rating = tc.rating
			tutor.TotalClasses = tc.total
			tutor.CompletedClasses = tc.completed

			assert.Equal(t, tc.expected, scorer.Score(studentFixture("s1", 0), tutor, "").Total)
		})
	}
}

func TestCompatibilityScorerCapsAtHundred(t *testing.T) {
	weights := config.DefaultWeights()
	weights.Grade = 60
	weights.Board = 60
	scorer := NewCompatibilityScorer(weights)

	score := scorer.Score(studentFixture("s1", 0), tutorFixture("t1"), "")
	assert.Equal(t, 100.0, score.Total)
}

func TestCompatibilityScorerBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	grades := []string{"9", "10", "11", "", "Grade 10"}
	boards := []string{"CBSE", "ICSE", "cbse", ""}
	subjects := []string{"Mathematics", "Math", "Physics", "Biology", "English"}

	pick := func(values []string, n int) []string {
		out := make([]string, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, values[rng.Intn(len(values))])
		}
		return out
	}

	for i := 0; i < 500; i++ {
		student := studentFixture("s", 0)
		student.Grade = grades[rng.Intn(len(grades))]
		student.Board = boards[rng.Intn(len(boards))]
		student.EnrolledSubjects = pick(subjects, rng.Intn(3))

		tutor := tutorFixture("t")
		tutor.Grades = pick(grades, rng.Intn(3))
		tutor.Boards = pick(boards, rng.Intn(2))
		tutor.Subjects = pick(subjects, rng.Intn(4))
		tutor.Rating = rng.Float64() * 5
		tutor.TestScore = floatPtr(rng.Float64() * 100)
		tutor.TotalClasses = rng.Intn(30)
		tutor.CompletedClasses = rng.Intn(tutor.TotalClasses + 1)

		score := scorer.Score(student, tutor, pick(subjects, 1)[0])
		require.GreaterOrEqual(t, score.Total, 0.0)
		require.LessOrEqual(t, score.Total, 100.0)

		grade := normalizeGrade(student.Grade)
		gradeOK := false
		for _, g := range tutor.Grades {
			if normalizeGrade(g) == grade {
				gradeOK = true
			}
		}
		if grade == "" || (len(tutor.Grades) > 0 && !gradeOK) {
			require.Zero(t, score.Total)
		}
	}
}

func TestCompatibilityScorerRankOrdersByScoreThenID(t *testing.T) {
	scorer := NewCompatibilityScorer(config.DefaultWeights())
	weak := tutorFixture("a-weak")
	weak.Rating = 0
	mismatch := tutorFixture("b-mismatch")
	mismatch.Grades = []string{"12"}

	ranked := scorer.Rank(studentFixture("s1", 0), []models.Tutor{tutorFixture("z-best"), weak, mismatch, tutorFixture("c-best")}, "")

	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"c-best", "z-best", "a-weak", "b-mismatch"}, []string{ranked[0].TutorID, ranked[1].TutorID, ranked[2].TutorID, ranked[3].TutorID})
}

func TestTierForScore(t *testing.T) {
	assert.Equal(t, models.TierExcellent, models.TierForScore(85))
	assert.Equal(t, models.TierVeryGood, models.TierForScore(84.99))
	assert.Equal(t, models.TierGood, models.TierForScore(55))
	assert.Equal(t, models.TierFair, models.TierForScore(40))
	assert.Equal(t, models.TierBasic, models.TierForScore(0.5))
	assert.Equal(t, models.TierNone, models.TierForScore(0))
}
