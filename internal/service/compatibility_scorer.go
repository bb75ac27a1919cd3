package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
)

// Reason strings for the mandatory dimensions.
const (
	ReasonGradeMatch    = "grade_match"
	ReasonBoardMatch    = "board_match"
	ReasonGradeMismatch = "grade mismatch"
	ReasonBoardMismatch = "board mismatch"
)

const maxScore = 100

type scoreTier struct {
	min      float64
	fraction float64
}

var (
	testScoreTiers  = []scoreTier{{90, 1}, {85, 0.8}, {80, 0.6}, {70, 0.4}}
	ratingTiers     = []scoreTier{{4.5, 1}, {4.0, 0.7}, {3.5, 0.5}}
	completionTiers = []scoreTier{{95, 1}, {90, 0.8}, {85, 0.6}}
)

const (
	partialSubjectFraction  = 0.7
	minClassesForCompletion = 5
)

var gradePrefixes = []string{"grade", "class", "std"}

// CompatibilityScorer rates how well a tutor fits a student. It holds no
// mutable state and is safe for concurrent use.
type CompatibilityScorer struct {
	weights config.ScoringWeights
}

// NewCompatibilityScorer constructs a scorer. Zero weights fall back to the defaults.
func NewCompatibilityScorer(weights config.ScoringWeights) *CompatibilityScorer {
	if weights == (config.ScoringWeights{}) {
		weights = config.DefaultWeights()
	}
	weights.Grade = math.Max(weights.Grade, 0)
	weights.Board = math.Max(weights.Board, 0)
	weights.Subject = math.Max(weights.Subject, 0)
	weights.TestScore = math.Max(weights.TestScore, 0)
	weights.Rating = math.Max(weights.Rating, 0)
	weights.Completion = math.Max(weights.Completion, 0)
	return &CompatibilityScorer{weights: weights}
}

// Score computes the additive compatibility score. Grade and board are gates:
// failing either, or a student missing them, yields zero.
func (s *CompatibilityScorer) Score(student models.Student, tutor models.Tutor, targetSubject string) models.MatchScore {
	result := models.MatchScore{
		StudentID: student.ID,
		TutorID:   tutor.ID,
		Reasons:   []string{},
		Tier:      models.TierNone,
	}

	grade := normalizeGrade(student.Grade)
	if grade == "" || (len(tutor.Grades) > 0 && !lo.ContainsBy(tutor.Grades, func(g string) bool { return normalizeGrade(g) == grade })) {
		result.Reasons = append(result.Reasons, ReasonGradeMismatch)
		return result
	}
	total := s.weights.Grade
	result.Reasons = append(result.Reasons, ReasonGradeMatch)

	board := normalizeTerm(student.Board)
	if board == "" || (len(tutor.Boards) > 0 && !lo.ContainsBy(tutor.Boards, func(b string) bool { return normalizeTerm(b) == board })) {
		result.Reasons = []string{ReasonBoardMismatch}
		return result
	}
	total += s.weights.Board
	result.Reasons = append(result.Reasons, ReasonBoardMatch)

	if points, reason := s.subjectPoints(student, tutor, targetSubject); points > 0 {
		total += points
		result.Reasons = append(result.Reasons, reason)
	}

	if tutor.TestScore != nil {
		if points := tiered(*tutor.TestScore, s.weights.TestScore, testScoreTiers); points > 0 {
			total += points
			result.Reasons = append(result.Reasons, fmt.Sprintf("test score %.0f", *tutor.TestScore))
		}
	}

	if points := tiered(tutor.Rating, s.weights.Rating, ratingTiers); points > 0 {
		total += points
		result.Reasons = append(result.Reasons, fmt.Sprintf("rated %.1f", tutor.Rating))
	}

	if tutor.TotalClasses >= minClassesForCompletion {
		rate := tutor.CompletionRate()
		if points := tiered(rate, s.weights.Completion, completionTiers); points > 0 {
			total += points
			result.Reasons = append(result.Reasons, fmt.Sprintf("%.0f%% class completion", rate))
		}
	}

	total = math.Min(math.Max(total, 0), maxScore)
	result.Total = roundPoints(total)
	result.Tier = models.TierForScore(result.Total)
	return result
}

// Rank scores every tutor for student, best first with ties broken by tutor id.
func (s *CompatibilityScorer) Rank(student models.Student, tutors []models.Tutor, targetSubject string) []models.MatchScore {
	scores := make([]models.MatchScore, 0, len(tutors))
	for _, tutor := range tutors {
		scores = append(scores, s.Score(student, tutor, targetSubject))
	}
	sortScores(scores)
	return scores
}

func (s *CompatibilityScorer) subjectPoints(student models.Student, tutor models.Tutor, targetSubject string) (float64, string) {
	tutorSubjects := normalizeSet(tutor.Subjects)

	if target := normalizeTerm(targetSubject); target != "" {
		if lo.ContainsBy(tutorSubjects, func(subject string) bool { return strings.Contains(subject, target) }) {
			return s.weights.Subject, "specializes in " + strings.TrimSpace(targetSubject)
		}
	}

	enrolled := normalizeSet(student.EnrolledSubjects)
	if shared := lo.Intersect(enrolled, tutorSubjects); len(shared) > 0 {
		sort.Strings(shared)
		return s.weights.Subject, "teaches " + strings.Join(shared, ", ")
	}

	related := lo.ContainsBy(enrolled, func(subject string) bool {
		return lo.ContainsBy(tutorSubjects, func(taught string) bool {
			return strings.Contains(taught, subject) || strings.Contains(subject, taught)
		})
	})
	if related {
		return roundPoints(math.Floor(s.weights.Subject * partialSubjectFraction)), "related subject expertise"
	}
	return 0, ""
}

func tiered(value, weight float64, tiers []scoreTier) float64 {
	for _, tier := range tiers {
		if value >= tier.min {
			return roundPoints(weight * tier.fraction)
		}
	}
	return 0
}

func sortScores(scores []models.MatchScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Total != scores[j].Total {
			return scores[i].Total > scores[j].Total
		}
		return scores[i].TutorID < scores[j].TutorID
	})
}

func roundPoints(value float64) float64 {
	return math.Round(value*100) / 100
}

func normalizeTerm(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeGrade(value string) string {
	grade := normalizeTerm(value)
	for _, prefix := range gradePrefixes {
		if strings.HasPrefix(grade, prefix) {
			grade = strings.TrimSpace(strings.TrimPrefix(grade, prefix))
			break
		}
	}
	return grade
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if normalized := normalizeTerm(value); normalized != "" {
			out = append(out, normalized)
		}
	}
	return lo.Uniq(out)
}
