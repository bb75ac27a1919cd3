package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

const tutorColumns = `id, full_name, subjects, grades, boards, availability, status, rating, test_score,
total_classes, completed_classes, COALESCE(qualification, '') AS qualification,
COALESCE(department_id, '') AS department_id, created_at, updated_at`

// TutorRepository reads tutor snapshots including availability.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// ListActive returns active tutors ordered by id.
func (r *TutorRepository) ListActive(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, error) {
	conditions := []string{"status = 'active'"}
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(subjects) AS subject WHERE LOWER(subject) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Subject)+"%")
	}

	query := fmt.Sprintf("SELECT %s FROM tutors WHERE %s ORDER BY id ASC", tutorColumns, strings.Join(conditions, " AND "))
	var tutors []models.Tutor
	if err := r.db.SelectContext(ctx, &tutors, query, args...); err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}
	return tutors, nil
}

// FindByID fetches a tutor by ID.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	query := fmt.Sprintf("SELECT %s FROM tutors WHERE id = $1", tutorColumns)
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}
