package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placementhub/placement-api/internal/service"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/response"
)

// AnalyticsHandler exposes dashboard and reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard godoc
// @Summary Dashboard overview
// @Description Aggregate counters plus the viewer's unread notification count
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	overview, err := h.analytics.Dashboard(c.Request.Context(), claims.UserID, claims.Role, claims.Department)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// Departments godoc
// @Summary Placement stats per department
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/departments [get]
func (h *AnalyticsHandler) Departments(c *gin.Context) {
	rows, err := h.analytics.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// MyReadiness godoc
// @Summary Own placement readiness report
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/readiness/me [get]
func (h *AnalyticsHandler) MyReadiness(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.analytics.Readiness(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// StudentReadiness godoc
// @Summary Readiness report for one student
// @Tags Analytics
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/readiness/{id} [get]
func (h *AnalyticsHandler) StudentReadiness(c *gin.Context) {
	report, err := h.analytics.Readiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ReadinessReports godoc
// @Summary Readiness reports for all students
// @Tags Analytics
// @Produce json
// @Param department query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /analytics/readiness [get]
func (h *AnalyticsHandler) ReadinessReports(c *gin.Context) {
	rows, err := h.analytics.ReadinessReports(c.Request.Context(), c.Query("department"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// System godoc
// @Summary Operational system snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	metrics, err := h.analytics.System(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, metrics, nil)
}
