package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unisched/timetable-api/internal/dto"
	"github.com/unisched/timetable-api/internal/models"
	"github.com/unisched/timetable-api/internal/service"
	appErrors "github.com/unisched/timetable-api/pkg/errors"
	"github.com/unisched/timetable-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Sample(ctx context.Context) (*dto.GenerateScheduleResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (string, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error)
	GetSlots(ctx context.Context, id string) ([]models.TimetableSlot, error)
	Delete(ctx context.Context, id string) error
	ExportCSV(proposalID string) ([]byte, error)
	ExportPDF(proposalID string) ([]byte, error)
}

// ScheduleHandler exposes the timetable generator endpoints.
type ScheduleHandler struct {
	service scheduleGenerator
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Generate godoc
// @Summary Generate a weekly timetable proposal
// @Description Runs the exact solver under a step budget and degrades to the relaxed pass when needed. The proposal is retained until saved or expired.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *ScheduleHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Sample godoc
// @Summary Generate a timetable for the built-in sample roster
// @Tags Scheduler
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /examples/sample-schedule [get]
func (h *ScheduleHandler) Sample(c *gin.Context) {
	result, err := h.service.Sample(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Save a generated proposal as a versioned timetable
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedule/save [post]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	id, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"timetableId": id})
}

// List godoc
// @Summary List stored timetable versions for a label
// @Tags Scheduler
// @Produce json
// @Param label query string true "Roster label"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	query := dto.TimetableQuery{Label: c.Query("label")}
	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Slots godoc
// @Summary Get the occupied hours of a stored timetable
// @Tags Scheduler
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/slots [get]
func (h *ScheduleHandler) Slots(c *gin.Context) {
	slots, err := h.service.GetSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Delete a stored timetable version
// @Tags Scheduler
// @Param id path string true "Timetable ID"
// @Success 204
// @Router /timetables/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Export a proposal's weekly grid as CSV
// @Tags Scheduler
// @Produce text/csv
// @Param id path string true "Proposal ID"
// @Success 200 {file} file
// @Router /schedule/proposals/{id}/export.csv [get]
func (h *ScheduleHandler) ExportCSV(c *gin.Context) {
	data, err := h.service.ExportCSV(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.csv", c.Param("id")))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export a proposal's weekly grid as PDF
// @Tags Scheduler
// @Produce application/pdf
// @Param id path string true "Proposal ID"
// @Success 200 {file} file
// @Router /schedule/proposals/{id}/export.pdf [get]
func (h *ScheduleHandler) ExportPDF(c *gin.Context) {
	data, err := h.service.ExportPDF(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", data)
}
