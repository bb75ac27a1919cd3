package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-allocation-api/internal/dto"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

// SchedulingServiceConfig governs class booking.
type SchedulingServiceConfig struct {
	// Capacity caps active classes per tutor.
	Capacity int
	// WriteLock is shared with AllocationService so class writes and plan
	// commits never interleave.
	WriteLock *sync.Mutex
}

// SchedulingService books and moves classes without double-booking anyone.
type SchedulingService struct {
	tutors      tutorReader
	students    studentReader
	commitments commitmentStore
	tx          txProvider
	detector    *ConflictDetector
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	warmer      summaryTrigger
	capacity    int
	mu          *sync.Mutex
}

// NewSchedulingService constructs the scheduling service.
func NewSchedulingService(
	tutors tutorReader,
	students studentReader,
	commitments commitmentStore,
	tx txProvider,
	detector *ConflictDetector,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SchedulingServiceConfig,
) *SchedulingService {
	if detector == nil {
		detector = NewConflictDetector()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = defaultTutorCapacity
	}
	if cfg.WriteLock == nil {
		cfg.WriteLock = &sync.Mutex{}
	}
	return &SchedulingService{
		tutors:      tutors,
		students:    students,
		commitments: commitments,
		tx:          tx,
		detector:    detector,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		capacity:    cfg.Capacity,
		mu:          cfg.WriteLock,
	}
}

// CheckConflict reports every conflict kind a proposed slot would hit.
func (s *SchedulingService) CheckConflict(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	date, err := parseSlotDate(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	slot := models.SlotProposal{
		TutorID:         req.TutorID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		StudentIDs:      lo.Uniq(req.StudentIDs),
		ExcludeID:       req.ExcludeCommitmentID,
	}
	conflicts, err := s.detect(ctx, slot)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return &dto.ConflictCheckResponse{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

// CreateClass books a class. Tutor and student clashes always block;
// availability can be overridden by the caller. A tutor already at capacity
// cannot take another class.
func (s *SchedulingService) CreateClass(ctx context.Context, req dto.CreateClassRequest) (*models.ClassCommitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	date, err := parseSlotDate(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	participants := lo.Without(lo.Uniq(req.ParticipantIDs), req.StudentID)
	slot := models.SlotProposal{
		TutorID:         req.TutorID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		StudentIDs:      append([]string{req.StudentID}, participants...),
	}
	commitment := &models.ClassCommitment{
		TutorID:         req.TutorID,
		StudentID:       req.StudentID,
		ParticipantIDs:  pq.StringArray(participants),
		Subject:         req.Subject,
		Date:            date,
		StartTime:       models.NormalizeTime(req.StartTime),
		DurationMinutes: req.DurationMinutes,
		Status:          models.CommitmentScheduled,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = inTutorTx(ctx, s.tx, s.commitments, []string{req.TutorID}, func(exec sqlx.ExtContext) error {
		conflicts, err := s.detect(ctx, slot)
		if err != nil {
			return err
		}
		if blocking := blockingConflicts(conflicts, req.AllowOutsideAvailability); len(blocking) > 0 {
			s.metrics.ObserveScheduleConflicts(blocking)
			return scheduleConflict("class conflicts with existing schedule", blocking)
		}
		if err := s.checkCapacity(ctx, req.TutorID); err != nil {
			return err
		}
		if err := s.commitments.Create(ctx, exec, commitment); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("class scheduled",
		zap.String("class_id", commitment.ID),
		zap.String("tutor_id", commitment.TutorID),
		zap.String("student_id", commitment.StudentID),
	)
	return commitment, nil
}

// Reschedule moves an active class, ignoring the class itself when scanning
// for clashes. The tutor's load is unchanged so capacity is not rechecked.
func (s *SchedulingService) Reschedule(ctx context.Context, id string, req dto.RescheduleClassRequest) (*models.ClassCommitment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	date, err := parseSlotDate(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.commitments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if !existing.Status.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only scheduled or ongoing classes can be rescheduled")
	}

	slot := models.SlotProposal{
		TutorID:         existing.TutorID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		StudentIDs:      append([]string{existing.StudentID}, existing.ParticipantIDs...),
		ExcludeID:       existing.ID,
	}
	startTime := models.NormalizeTime(req.StartTime)

	err = inTutorTx(ctx, s.tx, s.commitments, []string{existing.TutorID}, func(exec sqlx.ExtContext) error {
		conflicts, err := s.detect(ctx, slot)
		if err != nil {
			return err
		}
		if blocking := blockingConflicts(conflicts, req.AllowOutsideAvailability); len(blocking) > 0 {
			s.metrics.ObserveScheduleConflicts(blocking)
			return scheduleConflict("new slot conflicts with existing schedule", blocking)
		}
		if err := s.commitments.UpdateSchedule(ctx, exec, existing.ID, date, startTime, req.DurationMinutes); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule class")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	existing.Date = date
	existing.StartTime = startTime
	existing.DurationMinutes = req.DurationMinutes
	existing.Status = models.CommitmentScheduled
	s.invalidate(ctx)
	s.logger.Info("class rescheduled", zap.String("class_id", existing.ID), zap.String("date", req.Date), zap.String("start_time", startTime))
	return existing, nil
}

func (s *SchedulingService) checkCapacity(ctx context.Context, tutorID string) error {
	load, err := s.commitments.CountActiveByTutor(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor load")
	}
	if load[tutorID] < s.capacity {
		return nil
	}
	message := fmt.Sprintf("tutor already holds %d of %d active classes", load[tutorID], s.capacity)
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrScheduleConflict, message),
		&models.ScheduleConflictError{Message: message, Reason: models.ReasonTutorsAtCapacity, Conflicts: []models.Conflict{}},
	)
}

func (s *SchedulingService) detect(ctx context.Context, slot models.SlotProposal) ([]models.Conflict, error) {
	tutor, err := s.tutors.FindByID(ctx, slot.TutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	day := slot.Date
	existing, err := s.commitments.ListActive(ctx, models.CommitmentFilter{
		TutorID:    slot.TutorID,
		StudentIDs: slot.StudentIDs,
		DateFrom:   &day,
		DateTo:     &day,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class commitments")
	}
	return s.detector.FindConflicts(slot, tutor, existing), nil
}

func (s *SchedulingService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, summaryCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate allocation summary cache", zap.Error(err))
	}
	if s.warmer != nil {
		s.warmer.Trigger(models.StudentFilter{})
	}
}

// SetSummaryWarmer registers a hook run after every class write.
func (s *SchedulingService) SetSummaryWarmer(w summaryTrigger) {
	s.warmer = w
}

func scheduleConflict(message string, conflicts []models.Conflict) error {
	return appErrors.WithDetails(
		appErrors.Clone(appErrors.ErrScheduleConflict, message),
		&models.ScheduleConflictError{Message: message, Conflicts: conflicts},
	)
}
