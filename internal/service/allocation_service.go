package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-allocation-api/internal/dto"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/pkg/config"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

const (
	summaryCachePrefix = "allocation:summary"
	defaultMatchLimit  = 10
	maxMatchLimit      = 50
	dateLayout         = "2006-01-02"
)

type studentReader interface {
	ListActive(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	ListActiveUnallocated(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type tutorReader interface {
	ListActive(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, error)
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

type commitmentStore interface {
	ListActive(ctx context.Context, filter models.CommitmentFilter) ([]models.ClassCommitment, error)
	CountActiveByTutor(ctx context.Context) (map[string]int, error)
	FindByID(ctx context.Context, id string) (*models.ClassCommitment, error)
	Create(ctx context.Context, exec sqlx.ExtContext, commitment *models.ClassCommitment) error
	UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, date time.Time, startTime string, durationMinutes int) error
	tutorLocker
}

type summaryTrigger interface {
	Trigger(filter models.StudentFilter)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AllocationServiceConfig governs allocation behaviour.
type AllocationServiceConfig struct {
	PlanTTL     time.Duration
	UrgentAfter time.Duration
	CacheTTL    time.Duration
	// WriteLock is shared with SchedulingService.
	WriteLock *sync.Mutex
}

// AllocationService runs allocation plans against persisted snapshots and
// commits accepted plans as class commitments.
type AllocationService struct {
	students    studentReader
	tutors      tutorReader
	commitments commitmentStore
	tx          txProvider
	scorer      *CompatibilityScorer
	engine      *AllocationEngine
	detector    *ConflictDetector
	analytics   *AllocationAnalytics
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	warmer      summaryTrigger
	store       *planStore
	cacheTTL    time.Duration
	now         func() time.Time

	// mu serializes plans, commits and class writes so capacity bookkeeping
	// sees one writer.
	mu *sync.Mutex
}

// NewAllocationService wires allocation dependencies.
func NewAllocationService(
	students studentReader,
	tutors tutorReader,
	commitments commitmentStore,
	tx txProvider,
	engine *AllocationEngine,
	scorer *CompatibilityScorer,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationServiceConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scorer == nil {
		scorer = NewCompatibilityScorer(config.ScoringWeights{})
	}
	if engine == nil {
		engine = NewAllocationEngine(scorer, AllocationEngineConfig{})
	}
	if cfg.PlanTTL <= 0 {
		cfg.PlanTTL = 30 * time.Minute
	}
	if cfg.WriteLock == nil {
		cfg.WriteLock = &sync.Mutex{}
	}
	return &AllocationService{
		students:    students,
		tutors:      tutors,
		commitments: commitments,
		tx:          tx,
		scorer:      scorer,
		engine:      engine,
		detector:    NewConflictDetector(),
		analytics:   NewAllocationAnalytics(engine.Capacity(), cfg.UrgentAfter),
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		store:       newPlanStore(cfg.PlanTTL),
		cacheTTL:    cfg.CacheTTL,
		now:         time.Now,
		mu:          cfg.WriteLock,
	}
}

// Plan computes a dry-run allocation and stores it for a later commit.
func (s *AllocationService) Plan(ctx context.Context, req dto.PlanAllocationRequest, actorID string) (*models.AllocationProposal, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation plan payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	students, err := s.students.ListActiveUnallocated(ctx, models.StudentFilter{DepartmentID: req.DepartmentID, Grade: req.Grade, Board: req.Board})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unallocated students")
	}
	tutors, err := s.tutors.ListActive(ctx, models.TutorFilter{DepartmentID: req.DepartmentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutors")
	}
	load, err := s.commitments.CountActiveByTutor(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor load")
	}
	s.metrics.ObserveDBQuery("allocation_snapshot", time.Since(started))

	plan := s.engine.Plan(WaitingOrder(students), tutors, load)

	now := s.now().UTC()
	proposal := models.AllocationProposal{
		ID:        uuid.NewString(),
		Plan:      plan,
		Capacity:  s.engine.Capacity(),
		CreatedBy: actorID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.store.ttl),
	}
	s.store.Save(proposal)

	elapsed := time.Since(started)
	s.metrics.ObserveAllocationRun(len(plan.Assignments), len(plan.Conflicts), elapsed)
	s.logger.Info("allocation plan generated",
		zap.String("plan_id", proposal.ID),
		zap.Int("students", len(students)),
		zap.Int("tutors", len(tutors)),
		zap.Int("assigned", len(plan.Assignments)),
		zap.Int("conflicts", len(plan.Conflicts)),
		zap.Duration("duration", elapsed),
	)

	return &proposal, nil
}

// GetPlan returns a stored, unexpired plan.
func (s *AllocationService) GetPlan(ctx context.Context, id string) (*models.AllocationProposal, error) {
	proposal, ok := s.store.Get(id, s.now())
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation plan not found or expired")
	}
	return &proposal, nil
}

// Commit turns accepted plan entries into class commitments. Either every
// entry is created or none is.
func (s *AllocationService) Commit(ctx context.Context, req dto.CommitAllocationRequest) (*dto.CommitAllocationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation commit payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	proposal, ok := s.store.Get(req.PlanID, s.now())
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation plan not found or expired")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	if dup := lo.FindDuplicatesBy(req.Entries, func(e dto.CommitAllocationEntry) string { return e.StudentID }); len(dup) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s appears more than once", dup[0].StudentID))
	}

	type commitEntry struct {
		dto.CommitAllocationEntry
		tutorID string
		date    time.Time
	}
	entries := make([]commitEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		assignment, ok := proposal.Assignment(entry.StudentID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not assigned in plan %s", entry.StudentID, proposal.ID))
		}
		date, err := parseSlotDate(entry.Date, entry.StartTime, entry.DurationMinutes)
		if err != nil {
			return nil, err
		}
		entries = append(entries, commitEntry{CommitAllocationEntry: entry, tutorID: assignment.TutorID, date: date})
	}
	tutorIDs := lo.Map(entries, func(e commitEntry, _ int) string { return e.tutorID })

	accepted := make([]models.ClassCommitment, 0, len(entries))
	err := inTutorTx(ctx, s.tx, s.commitments, tutorIDs, func(exec sqlx.ExtContext) error {
		load, err := s.commitments.CountActiveByTutor(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor load")
		}
		if load == nil {
			load = map[string]int{}
		}

		tutors := map[string]*models.Tutor{}
		var failures []dto.CommitEntryConflict
		for _, entry := range entries {
			tutor, err := s.loadTutor(ctx, tutors, entry.tutorID)
			if err != nil {
				return err
			}

			load[entry.tutorID]++
			if load[entry.tutorID] > proposal.Capacity {
				failures = append(failures, dto.CommitEntryConflict{StudentID: entry.StudentID, TutorID: entry.tutorID, Reason: models.ReasonTutorsAtCapacity})
				continue
			}

			date := entry.date
			existing, err := s.commitments.ListActive(ctx, models.CommitmentFilter{
				TutorID:    entry.tutorID,
				StudentIDs: []string{entry.StudentID},
				DateFrom:   &date,
				DateTo:     &date,
			})
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class commitments")
			}

			slot := models.SlotProposal{
				TutorID:         entry.tutorID,
				Date:            date,
				StartTime:       entry.StartTime,
				DurationMinutes: entry.DurationMinutes,
				StudentIDs:      []string{entry.StudentID},
			}
			conflicts := blockingConflicts(s.detector.FindConflicts(slot, tutor, append(existing, accepted...)), req.AllowOutsideAvailability)
			if len(conflicts) > 0 {
				failures = append(failures, dto.CommitEntryConflict{StudentID: entry.StudentID, TutorID: entry.tutorID, Conflicts: conflicts})
				s.metrics.ObserveScheduleConflicts(conflicts)
				continue
			}

			planID := proposal.ID
			accepted = append(accepted, models.ClassCommitment{
				ID:              uuid.NewString(),
				TutorID:         entry.tutorID,
				StudentID:       entry.StudentID,
				Subject:         entry.Subject,
				Date:            date,
				StartTime:       models.NormalizeTime(entry.StartTime),
				DurationMinutes: entry.DurationMinutes,
				Status:          models.CommitmentScheduled,
				PlanID:          &planID,
			})
		}
		if len(failures) > 0 {
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrScheduleConflict, "allocation commit blocked by conflicts"), failures)
		}

		for i := range accepted {
			if err := s.commitments.Create(ctx, exec, &accepted[i]); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class commitment")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.store.Delete(proposal.ID)
	s.invalidateSummaries(ctx)
	s.logger.Info("allocation plan committed", zap.String("plan_id", proposal.ID), zap.Int("classes", len(accepted)))

	return &dto.CommitAllocationResponse{PlanID: proposal.ID, Created: accepted}, nil
}

// Matches ranks every active tutor for one student.
func (s *AllocationService) Matches(ctx context.Context, studentID, subject string, limit int) (*dto.StudentMatchesResponse, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	tutors, err := s.tutors.ListActive(ctx, models.TutorFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutors")
	}

	if limit <= 0 {
		limit = defaultMatchLimit
	}
	if limit > maxMatchLimit {
		limit = maxMatchLimit
	}

	byID := lo.KeyBy(tutors, func(t models.Tutor) string { return t.ID })
	ranked := lo.Filter(s.scorer.Rank(*student, tutors, subject), func(m models.MatchScore, _ int) bool { return m.Total > 0 })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	matches := make([]dto.TutorMatch, 0, len(ranked))
	for _, score := range ranked {
		tutor := byID[score.TutorID]
		matches = append(matches, dto.TutorMatch{
			MatchScore:   score,
			TutorName:    tutor.FullName,
			Availability: tutor.Availability.Summary(),
		})
	}
	return &dto.StudentMatchesResponse{StudentID: student.ID, Subject: subject, Matches: matches}, nil
}

// Summary aggregates allocation state. The boolean reports a cache hit.
func (s *AllocationService) Summary(ctx context.Context, filter models.StudentFilter) (*models.AllocationSummary, bool, error) {
	summary, hit, err := Remember(ctx, s.cache, makeSummaryCacheKey(filter), s.cacheTTL, func(ctx context.Context) (models.AllocationSummary, error) {
		return s.computeSummary(ctx, filter)
	})
	if err != nil {
		return nil, false, err
	}
	return &summary, hit, nil
}

func (s *AllocationService) computeSummary(ctx context.Context, filter models.StudentFilter) (models.AllocationSummary, error) {
	started := time.Now()
	students, err := s.students.ListActive(ctx, filter)
	if err != nil {
		return models.AllocationSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	tutors, err := s.tutors.ListActive(ctx, models.TutorFilter{DepartmentID: filter.DepartmentID})
	if err != nil {
		return models.AllocationSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutors")
	}
	commitments, err := s.commitments.ListActive(ctx, models.CommitmentFilter{})
	if err != nil {
		return models.AllocationSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class commitments")
	}
	s.metrics.ObserveDBQuery("allocation_summary", time.Since(started))

	return s.analytics.Summarize(students, commitments, tutors, s.now().UTC()), nil
}

func (s *AllocationService) loadTutor(ctx context.Context, cache map[string]*models.Tutor, id string) (*models.Tutor, error) {
	if tutor, ok := cache[id]; ok {
		return tutor, nil
	}
	tutor, err := s.tutors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	cache[id] = tutor
	return tutor, nil
}

func (s *AllocationService) invalidateSummaries(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, summaryCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate allocation summary cache", zap.Error(err))
	}
	if s.warmer != nil {
		s.warmer.Trigger(models.StudentFilter{})
	}
}

// SetSummaryWarmer registers a hook that recomputes the unfiltered summary
// after every class write.
func (s *AllocationService) SetSummaryWarmer(w summaryTrigger) {
	s.warmer = w
}

func makeSummaryCacheKey(filter models.StudentFilter) string {
	return fmt.Sprintf("%s:%s:%s:%s", summaryCachePrefix, filter.DepartmentID, normalizeTerm(filter.Grade), normalizeTerm(filter.Board))
}

// blockingConflicts drops tutor_unavailable when the caller overrides availability.
func blockingConflicts(conflicts []models.Conflict, allowOutsideAvailability bool) []models.Conflict {
	if !allowOutsideAvailability {
		return conflicts
	}
	return lo.Filter(conflicts, func(c models.Conflict, _ int) bool {
		return c.Kind != models.ConflictTutorUnavailable
	})
}

type planStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]models.AllocationProposal
}

func newPlanStore(ttl time.Duration) *planStore {
	return &planStore{
		ttl:   ttl,
		items: make(map[string]models.AllocationProposal),
	}
}

func (s *planStore) Save(proposal models.AllocationProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ID] = proposal
}

func (s *planStore) Get(id string, now time.Time) (models.AllocationProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.AllocationProposal{}, false
	}
	if now.After(proposal.ExpiresAt) {
		s.Delete(id)
		return models.AllocationProposal{}, false
	}
	return proposal, true
}

func (s *planStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
