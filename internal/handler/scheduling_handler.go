package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-allocation-api/internal/dto"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/internal/service"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
	"github.com/noah-isme/tutor-allocation-api/pkg/response"
)

type classScheduler interface {
	CheckConflict(ctx context.Context, req dto.ConflictCheckRequest) (*dto.ConflictCheckResponse, error)
	CreateClass(ctx context.Context, req dto.CreateClassRequest) (*models.ClassCommitment, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleClassRequest) (*models.ClassCommitment, error)
}

// SchedulingHandler exposes class booking endpoints.
type SchedulingHandler struct {
	service classScheduler
}

// NewSchedulingHandler constructs the handler.
func NewSchedulingHandler(svc *service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{service: svc}
}

// CheckConflict godoc
// @Summary Check a proposed class slot for conflicts
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ConflictCheckRequest true "Proposed slot"
// @Success 200 {object} response.Envelope
// @Router /classes/conflicts [post]
func (h *SchedulingHandler) CheckConflict(c *gin.Context) {
	var req dto.ConflictCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict check payload"))
		return
	}
	result, err := h.service.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Create godoc
// @Summary Schedule a class
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [post]
func (h *SchedulingHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.service.CreateClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Reschedule godoc
// @Summary Move a class to a new slot
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.RescheduleClassRequest true "New slot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/schedule [put]
func (h *SchedulingHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	class, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}
