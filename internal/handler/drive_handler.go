package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/service"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/response"
)

// DriveHandler exposes company drive endpoints.
type DriveHandler struct {
	drives *service.DriveService
}

// NewDriveHandler constructs DriveHandler.
func NewDriveHandler(drives *service.DriveService) *DriveHandler {
	return &DriveHandler{drives: drives}
}

// Create godoc
// @Summary Create a company drive
// @Tags Drives
// @Accept json
// @Produce json
// @Param payload body models.CreateDriveRequest true "Drive payload"
// @Success 201 {object} response.Envelope
// @Router /drives [post]
func (h *DriveHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid drive payload"))
		return
	}
	drive, err := h.drives.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, drive)
}

// Get godoc
// @Summary Get drive detail
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Router /drives/{id} [get]
func (h *DriveHandler) Get(c *gin.Context) {
	drive, err := h.drives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// List godoc
// @Summary List company drives
// @Tags Drives
// @Produce json
// @Param status query string false "Filter by status"
// @Param mode query string false "Filter by mode"
// @Param search query string false "Search by company or role"
// @Param from query string false "Drives starting after (YYYY-MM-DD)"
// @Param to query string false "Drives starting before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /drives [get]
func (h *DriveHandler) List(c *gin.Context) {
	var filter models.DriveFilter
	filter.Status = models.DriveStatus(c.Query("status"))
	filter.Mode = models.DriveMode(c.Query("mode"))
	filter.Search = strings.TrimSpace(c.Query("search"))
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

	drives, pagination, err := h.drives.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drives, pagination)
}

// Update godoc
// @Summary Update a drive
// @Tags Drives
// @Accept json
// @Produce json
// @Param id path string true "Drive ID"
// @Param payload body models.UpdateDriveRequest true "Drive payload"
// @Success 200 {object} response.Envelope
// @Router /drives/{id} [put]
func (h *DriveHandler) Update(c *gin.Context) {
	var req models.UpdateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid drive payload"))
		return
	}
	drive, err := h.drives.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, drive, nil)
}

// Cancel godoc
// @Summary Cancel a drive
// @Tags Drives
// @Produce json
// @Param id path string true "Drive ID"
// @Success 204 {object} response.Envelope
// @Router /drives/{id} [delete]
func (h *DriveHandler) Cancel(c *gin.Context) {
	if err := h.drives.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
