package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

const studentColumns = `s.id, s.full_name, s.grade, s.board, s.enrolled_subjects, s.difficult_subjects, s.active,
s.enrollment_status, COALESCE(s.department_id, '') AS department_id, s.created_at, s.updated_at`

const activeStudentClause = `s.active = TRUE AND s.enrollment_status = 'active'`

const unallocatedClause = `NOT EXISTS (
SELECT 1 FROM class_commitments c
WHERE c.status IN ('scheduled', 'ongoing') AND (c.student_id = s.id OR s.id = ANY(c.participant_ids)))`

// StudentRepository reads student snapshots for allocation.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListActive returns allocatable students, oldest enrolment first.
func (r *StudentRepository) ListActive(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	return r.list(ctx, filter, false)
}

// ListActiveUnallocated returns allocatable students without a scheduled or
// ongoing class, oldest enrolment first.
func (r *StudentRepository) ListActiveUnallocated(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	return r.list(ctx, filter, true)
}

func (r *StudentRepository) list(ctx context.Context, filter models.StudentFilter, unallocated bool) ([]models.Student, error) {
	conditions := []string{activeStudentClause}
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.grade) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Board != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.board) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Board)
	}
	if unallocated {
		conditions = append(conditions, unallocatedClause)
	}

	query := fmt.Sprintf("SELECT %s FROM students s WHERE %s ORDER BY s.created_at ASC, s.id ASC", studentColumns, strings.Join(conditions, " AND "))
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}
