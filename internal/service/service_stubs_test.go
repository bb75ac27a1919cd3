package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

type studentRepoStub struct {
	students       []models.Student
	err            error
	lastFilter     models.StudentFilter
	unallocatedFor []models.ClassCommitment
}

func (s *studentRepoStub) ListActive(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.students, nil
}

func (s *studentRepoStub) ListActiveUnallocated(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return UnallocatedStudents(s.students, s.unallocatedFor), nil
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for i := range s.students {
		if s.students[i].ID == id {
			student := s.students[i]
			return &student, nil
		}
	}
	return nil, sql.ErrNoRows
}

type tutorRepoStub struct {
	tutors []models.Tutor
	err    error
}

func (s *tutorRepoStub) ListActive(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tutors, nil
}

func (s *tutorRepoStub) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	for i := range s.tutors {
		if s.tutors[i].ID == id {
			tutor := s.tutors[i]
			return &tutor, nil
		}
	}
	return nil, sql.ErrNoRows
}

type commitmentRepoStub struct {
	mu         sync.Mutex
	persist    bool
	locked     []string
	existing   []models.ClassCommitment
	created    []models.ClassCommitment
	createErr  error
	failAfter  int
	updated    map[string]time.Time
	updateErr  error
	lastFilter models.CommitmentFilter
}

func (s *commitmentRepoStub) ListActive(ctx context.Context, filter models.CommitmentFilter) ([]models.ClassCommitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = filter
	out := make([]models.ClassCommitment, 0, len(s.existing))
	for _, c := range s.existing {
		if c.Status.IsActive() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *commitmentRepoStub) CountActiveByTutor(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveLoadByTutor(s.existing), nil
}

func (s *commitmentRepoStub) FindByID(ctx context.Context, id string) (*models.ClassCommitment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.existing {
		if s.existing[i].ID == id {
			c := s.existing[i]
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *commitmentRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, commitment *models.ClassCommitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil && len(s.created) >= s.failAfter {
		return s.createErr
	}
	if commitment.ID == "" {
		commitment.ID = "class-" + commitment.StudentID
	}
	s.created = append(s.created, *commitment)
	if s.persist {
		s.existing = append(s.existing, *commitment)
	}
	return nil
}

func (s *commitmentRepoStub) LockTutor(ctx context.Context, exec sqlx.ExtContext, tutorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = append(s.locked, tutorID)
	return nil
}

func (s *commitmentRepoStub) UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, date time.Time, startTime string, durationMinutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updated == nil {
		s.updated = map[string]time.Time{}
	}
	s.updated[id] = date
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = payload
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}
