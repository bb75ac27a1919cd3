package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

var fixtureEpoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 {
	return &v
}

func studentFixture(id string, createdOffset time.Duration) models.Student {
	return models.Student{
		ID:               id,
		FullName:         "Student " + id,
		Grade:            "10",
		Board:            "CBSE",
		EnrolledSubjects: []string{"Mathematics"},
		Active:           true,
		EnrollmentStatus: models.EnrollmentActive,
		CreatedAt:        fixtureEpoch.Add(createdOffset),
	}
}

func tutorFixture(id string) models.Tutor {
	return models.Tutor{
		ID:               id,
		FullName:         "Tutor " + id,
		Subjects:         []string{"Mathematics", "Physics"},
		Grades:           []string{"10", "11"},
		Boards:           []string{"CBSE"},
		Status:           models.TutorActive,
		Rating:           4.6,
		TestScore:        floatPtr(92),
		TotalClasses:     20,
		CompletedClasses: 20,
		Availability: models.Availability{
			"monday": {{Start: 9 * 60, End: 12 * 60}},
		},
	}
}

func commitmentFixture(id, tutorID, studentID, date, start string, duration int) models.ClassCommitment {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(fmt.Sprintf("bad fixture date %q", date))
	}
	return models.ClassCommitment{
		ID:              id,
		TutorID:         tutorID,
		StudentID:       studentID,
		Date:            day,
		StartTime:       start,
		DurationMinutes: duration,
		Status:          models.CommitmentScheduled,
	}
}

func mustDate(value string) time.Time {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return day
}
