package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-allocation-api/internal/dto"
	"github.com/noah-isme/tutor-allocation-api/internal/middleware"
	"github.com/noah-isme/tutor-allocation-api/internal/models"
	"github.com/noah-isme/tutor-allocation-api/internal/service"
	appErrors "github.com/noah-isme/tutor-allocation-api/pkg/errors"
	"github.com/noah-isme/tutor-allocation-api/pkg/response"
)

type allocationPlanner interface {
	Plan(ctx context.Context, req dto.PlanAllocationRequest, actorID string) (*models.AllocationProposal, error)
	GetPlan(ctx context.Context, id string) (*models.AllocationProposal, error)
	Commit(ctx context.Context, req dto.CommitAllocationRequest) (*dto.CommitAllocationResponse, error)
	Matches(ctx context.Context, studentID, subject string, limit int) (*dto.StudentMatchesResponse, error)
	Summary(ctx context.Context, filter models.StudentFilter) (*models.AllocationSummary, bool, error)
}

type summaryExporter interface {
	ExportSummary(ctx context.Context, filter models.StudentFilter, format string) (*service.ExportResult, error)
}

// AllocationHandler exposes allocation planning, commit and reporting endpoints.
type AllocationHandler struct {
	service  allocationPlanner
	exporter summaryExporter
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(svc *service.AllocationService, exporter *service.ExportService) *AllocationHandler {
	return &AllocationHandler{service: svc, exporter: exporter}
}

// Plan godoc
// @Summary Compute a dry-run allocation plan
// @Description Assigns unallocated students to compatible tutors with spare capacity. Nothing is persisted; the plan is kept for a limited time so it can be committed.
// @Tags Allocation
// @Accept json
// @Produce json
// @Param payload body dto.PlanAllocationRequest false "Optional scope"
// @Success 200 {object} response.Envelope
// @Router /allocations/plan [post]
func (h *AllocationHandler) Plan(c *gin.Context) {
	var req dto.PlanAllocationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
			return
		}
	}
	actorID := ""
	if claims := middleware.CurrentClaims(c); claims != nil {
		actorID = claims.UserID
	}
	proposal, err := h.service.Plan(c.Request.Context(), req, actorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "assigned", len(proposal.Plan.Assignments))
	middleware.SetMeta(c, "unassigned", len(proposal.Plan.Conflicts))
	response.JSON(c, http.StatusOK, proposal, middleware.ExtractMeta(c))
}

// GetPlan godoc
// @Summary Fetch a stored allocation plan
// @Tags Allocation
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /allocations/plan/{id} [get]
func (h *AllocationHandler) GetPlan(c *gin.Context) {
	proposal, err := h.service.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal)
}

// Commit godoc
// @Summary Commit accepted plan entries as scheduled classes
// @Description All entries are created in one transaction; any conflict rejects the whole request with 409.
// @Tags Allocation
// @Accept json
// @Produce json
// @Param payload body dto.CommitAllocationRequest true "Accepted entries"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations/commit [post]
func (h *AllocationHandler) Commit(c *gin.Context) {
	var req dto.CommitAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid commit payload"))
		return
	}
	result, err := h.service.Commit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Summary godoc
// @Summary Allocation summary
// @Tags Allocation
// @Produce json
// @Param department_id query string false "Department ID"
// @Param grade query string false "Grade"
// @Param board query string false "Board"
// @Success 200 {object} response.Envelope
// @Router /allocations/summary [get]
func (h *AllocationHandler) Summary(c *gin.Context) {
	summary, hit, err := h.service.Summary(c.Request.Context(), summaryFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, middleware.ExtractMeta(c))
}

// ExportSummary godoc
// @Summary Download the allocation summary
// @Tags Allocation
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param department_id query string false "Department ID"
// @Success 200 {file} file
// @Router /allocations/summary/export [get]
func (h *AllocationHandler) ExportSummary(c *gin.Context) {
	result, err := h.exporter.ExportSummary(c.Request.Context(), summaryFilter(c), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Data)
}

// Matches godoc
// @Summary Ranked tutor matches for a student
// @Tags Allocation
// @Produce json
// @Param id path string true "Student ID"
// @Param subject query string false "Subject to prioritise"
// @Param limit query int false "Maximum matches" default(10)
// @Success 200 {object} response.Envelope
// @Router /students/{id}/matches [get]
func (h *AllocationHandler) Matches(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	result, err := h.service.Matches(c.Request.Context(), c.Param("id"), c.Query("subject"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func summaryFilter(c *gin.Context) models.StudentFilter {
	return models.StudentFilter{
		DepartmentID: c.Query("department_id"),
		Grade:        c.Query("grade"),
		Board:        c.Query("board"),
	}
}
