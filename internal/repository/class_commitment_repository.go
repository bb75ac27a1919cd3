package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
)

const commitmentColumns = `id, tutor_id, student_id, participant_ids, COALESCE(subject, '') AS subject, class_date,
start_time, duration_minutes, status, plan_id, created_at, updated_at`

// ClassCommitmentRepository persists scheduled classes.
type ClassCommitmentRepository struct {
	db *sqlx.DB
}

// NewClassCommitmentRepository constructs a ClassCommitmentRepository.
func NewClassCommitmentRepository(db *sqlx.DB) *ClassCommitmentRepository {
	return &ClassCommitmentRepository{db: db}
}

// ListActive returns scheduled and ongoing classes. When both TutorID and
// StudentIDs are set a class matches if it involves either.
func (r *ClassCommitmentRepository) ListActive(ctx context.Context, filter models.CommitmentFilter) ([]models.ClassCommitment, error) {
	conditions := []string{"status IN ('scheduled', 'ongoing')"}
	var args []interface{}

	var parties []string
	if filter.TutorID != "" {
		parties = append(parties, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if len(filter.StudentIDs) > 0 {
		idx := len(args) + 1
		parties = append(parties, fmt.Sprintf("student_id = ANY($%d) OR participant_ids && $%d", idx, idx))
		args = append(args, pq.Array(filter.StudentIDs))
	}
	if len(parties) > 0 {
		conditions = append(conditions, "("+strings.Join(parties, " OR ")+")")
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("class_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("class_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	query := fmt.Sprintf("SELECT %s FROM class_commitments WHERE %s ORDER BY class_date ASC, start_time ASC, id ASC", commitmentColumns, strings.Join(conditions, " AND "))
	var commitments []models.ClassCommitment
	if err := r.db.SelectContext(ctx, &commitments, query, args...); err != nil {
		return nil, fmt.Errorf("list class commitments: %w", err)
	}
	return commitments, nil
}

type tutorLoadRow struct {
	TutorID string `db:"tutor_id"`
	Count   int    `db:"active_count"`
}

// CountActiveByTutor returns the number of scheduled and ongoing classes per tutor.
func (r *ClassCommitmentRepository) CountActiveByTutor(ctx context.Context) (map[string]int, error) {
	const query = `SELECT tutor_id, COUNT(*) AS active_count FROM class_commitments WHERE status IN ('scheduled', 'ongoing') GROUP BY tutor_id`
	var rows []tutorLoadRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count tutor load: %w", err)
	}
	load := make(map[string]int, len(rows))
	for _, row := range rows {
		load[row.TutorID] = row.Count
	}
	return load, nil
}

// FindByID fetches a class commitment by ID.
func (r *ClassCommitmentRepository) FindByID(ctx context.Context, id string) (*models.ClassCommitment, error) {
	query := fmt.Sprintf("SELECT %s FROM class_commitments WHERE id = $1", commitmentColumns)
	var commitment models.ClassCommitment
	if err := r.db.GetContext(ctx, &commitment, query, id); err != nil {
		return nil, err
	}
	return &commitment, nil
}

// LockTutor takes a transaction-scoped advisory lock on the tutor's schedule.
// exec must be a transaction; the lock is released on commit or rollback.
func (r *ClassCommitmentRepository) LockTutor(ctx context.Context, exec sqlx.ExtContext, tutorID string) error {
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "tutor_schedule:"+tutorID); err != nil {
		return fmt.Errorf("lock tutor schedule: %w", err)
	}
	return nil
}

// Create inserts a class commitment using exec, which may be a transaction.
func (r *ClassCommitmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, commitment *models.ClassCommitment) error {
	if exec == nil {
		exec = r.db
	}
	if commitment.ID == "" {
		commitment.ID = uuid.NewString()
	}
	if commitment.Status == "" {
		commitment.Status = models.CommitmentScheduled
	}
	if commitment.ParticipantIDs == nil {
		commitment.ParticipantIDs = pq.StringArray{}
	}
	now := time.Now().UTC()
	commitment.CreatedAt = now
	commitment.UpdatedAt = now

	const query = `INSERT INTO class_commitments (id, tutor_id, student_id, participant_ids, subject, class_date, start_time, duration_minutes, status, plan_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := exec.ExecContext(ctx, query,
		commitment.ID,
		commitment.TutorID,
		commitment.StudentID,
		commitment.ParticipantIDs,
		commitment.Subject,
		commitment.Date,
		commitment.StartTime,
		commitment.DurationMinutes,
		commitment.Status,
		commitment.PlanID,
		commitment.CreatedAt,
		commitment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert class commitment: %w", err)
	}
	return nil
}

// UpdateSchedule moves a class to a new slot and marks it scheduled.
func (r *ClassCommitmentRepository) UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, date time.Time, startTime string, durationMinutes int) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE class_commitments SET class_date = $2, start_time = $3, duration_minutes = $4, status = 'scheduled', updated_at = $5 WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, date, startTime, durationMinutes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update class schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update class schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
