package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

var tutorRowColumns = []string{"id", "full_name", "subjects", "grades", "boards", "availability", "status", "rating", "test_score", "total_classes", "completed_classes", "qualification", "department_id", "created_at", "updated_at"}

func TestTutorRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTutorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(tutorRowColumns).
		AddRow("t1", "Tutor One", "{Mathematics}", "{10,11}", "{CBSE}", []byte(`{"Mon":[{"start":"09:00","end":"12:00"}]}`), "active", 4.6, 92.0, 20, 19, "MSc", "", now, now).
		AddRow("t2", "Tutor Two", "{Physics}", "{}", "{}", nil, "active", 3.9, nil, 0, 0, "", "", now, now)
	mock.ExpectQuery(`FROM tutors WHERE status = 'active' AND EXISTS \(SELECT 1 FROM unnest\(subjects\) AS subject WHERE LOWER\(subject\) LIKE \$1\) ORDER BY id ASC`).
		WithArgs("%math%").
		WillReturnRows(rows)

	tutors, err := repo.ListActive(context.Background(), models.TutorFilter{Subject: "Math"})
	require.NoError(t, err)
	require.Len(t, tutors, 2)

	assert.True(t, tutors[0].Availability.IsAvailable("monday", "11:59"))
	require.NotNil(t, tutors[0].TestScore)
	assert.Equal(t, 92.0, *tutors[0].TestScore)
	assert.Equal(t, []string{"10", "11"}, []string(tutors[0].Grades))

	assert.True(t, tutors[1].Availability.IsEmpty())
	assert.Nil(t, tutors[1].TestScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorRepositoryFindByIDRejectsOverlappingAvailability(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTutorRepository(db)

	now := time.Now()
	overlapping := []byte(`{"monday":[{"start":"09:00","end":"11:00"},{"start":"10:00","end":"12:00"}]}`)
	mock.ExpectQuery(`FROM tutors WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(tutorRowColumns).AddRow("t1", "Tutor One", "{}", "{}", "{}", overlapping, "active", 4.0, nil, 0, 0, "", "", now, now))

	_, err := repo.FindByID(context.Background(), "t1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
