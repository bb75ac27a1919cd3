package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-allocation-api/internal/dto"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
)

type classSchedulerMock struct {
	checked     dto.ConflictCheckRequest
	created     dto.CreateClassRequest
	rescheduled string
	createErr   error
}

func (m *classSchedulerMock) CheckConflict(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error) {
	m.checked = req
	return &dto.ConflictCheckResponse{
		HasConflict: true,
		Conflicts:   []models.Conflict{{Kind: models.ConflictTutor, Message: "tutor already has a class from 09:00 to 10:00"}},
	}, nil
}

func (m *classSchedulerMock) CreateClass(ctx context.Context, req dto.CreateClassRequest) (*models.ClassCommitment, error) {
	m.created = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.ClassCommitment{ID: "class-1", TutorID: req.TutorID, StudentID: req.StudentID}, nil
}

func (m *classSchedulerMock) Reschedule(ctx context.Context, id string, req dto.RescheduleClassRequest) (*models.ClassCommitment, error) {
	m.rescheduled = id
	return &models.ClassCommitment{ID: id, StartTime: req.StartTime}, nil
}

func newSchedulingRouter(mock *classSchedulerMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &SchedulingHandler{service: mock}
	router := gin.New()
	router.POST("/classes/conflicts", h.CheckConflict)
	router.POST("/classes", h.Create)
	router.PUT("/classes/:id/schedule", h.Reschedule)
	return router
}

func TestSchedulingHandlerCheckConflict(t *testing.T) {
	mock := &classSchedulerMock{}
	router := newSchedulingRouter(mock)
	body := `{"tutor_id":"t1","student_ids":["s1"],"date":"2025-03-03","start_time":"09:30","duration_minutes":60}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/classes/conflicts", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", mock.checked.TutorID)
	assert.Contains(t, w.Body.String(), `"kind":"tutor_conflict"`)
}

func TestSchedulingHandlerCreate(t *testing.T) {
	mock := &classSchedulerMock{}
	router := newSchedulingRouter(mock)
	body := `{"tutor_id":"t1","student_id":"s1","date":"2025-03-03","start_time":"09:00","duration_minutes":60,"allow_outside_availability":true}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/classes", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mock.created.AllowOutsideAvailability)
}

func TestSchedulingHandlerCreateConflict(t *testing.T) {
	conflictErr := appErrors.WithDetails(appErrors.Clone(appErrors.ErrScheduleConflict, "class conflicts with existing schedule"),
		&models.ScheduleConflictError{Message: "class conflicts with existing schedule", Conflicts: []models.Conflict{{Kind: models.ConflictStudent}}})
	router := newSchedulingRouter(&classSchedulerMock{createErr: conflictErr})
	body := `{"tutor_id":"t1","student_id":"s1","date":"2025-03-03","start_time":"09:00","duration_minutes":60}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/classes", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"SCHEDULE_CONFLICT"`)
	assert.Contains(t, w.Body.String(), `"kind":"student_conflict"`)
}

func TestSchedulingHandlerReschedule(t *testing.T) {
	mock := &classSchedulerMock{}
	router := newSchedulingRouter(mock)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/classes/class-9/schedule", bytes.NewReader([]byte(`{"date":"2025-03-03","start_time":"10:00","duration_minutes":60}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "class-9", mock.rescheduled)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPut, "/classes/class-9/schedule", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
