package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/service"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/response"
)

// TrainingHandler exposes training session and attendance endpoints.
type TrainingHandler struct {
	training *service.TrainingService
}

// NewTrainingHandler constructs TrainingHandler.
func NewTrainingHandler(training *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{training: training}
}

// Schedule godoc
// @Summary Schedule a training session
// @Tags Training
// @Accept json
// @Produce json
// @Param payload body models.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /training/sessions [post]
func (h *TrainingHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.training.Schedule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get session detail
// @Tags Training
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /training/sessions/{id} [get]
func (h *TrainingHandler) Get(c *gin.Context) {
	session, err := h.training.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// List godoc
// @Summary List training sessions
// @Tags Training
// @Produce json
// @Param status query string false "Filter by status"
// @Param trainerId query string false "Filter by trainer"
// @Param from query string false "Sessions starting after (YYYY-MM-DD)"
// @Param to query string false "Sessions starting before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /training/sessions [get]
func (h *TrainingHandler) List(c *gin.Context) {
	var filter models.SessionFilter
	filter.Status = models.SessionStatus(c.Query("status"))
	filter.TrainerID = c.Query("trainerId")
	if raw := c.Query("from"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			filter.FromDate = &ts
		}
	}
	if raw := c.Query("to"); raw != "" {
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			filter.ToDate = &ts
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.training.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// UpdateStatus godoc
// @Summary Update session status
// @Tags Training
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body map[string]string true "New status"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /training/sessions/{id}/status [put]
func (h *TrainingHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status models.SessionStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	if err := h.training.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAttendance godoc
// @Summary Record attendance for a session
// @Description Re-marking a student replaces the earlier mark
// @Tags Training
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.MarkAttendanceRequest true "Attendance payload"
// @Success 204 {object} response.Envelope
// @Router /training/sessions/{id}/attendance [post]
func (h *TrainingHandler) MarkAttendance(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if err := h.training.MarkAttendance(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Attendance godoc
// @Summary List attendance for a session
// @Tags Training
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /training/sessions/{id}/attendance [get]
func (h *TrainingHandler) Attendance(c *gin.Context) {
	records, err := h.training.Attendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// MySummary godoc
// @Summary Own attendance summary
// @Tags Training
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /training/attendance/me [get]
func (h *TrainingHandler) MySummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.training.StudentSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
