package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/service"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/response"
)

// ResumeHandler exposes resume builder endpoints.
type ResumeHandler struct {
	resumes *service.ResumeService
}

// NewResumeHandler constructs ResumeHandler.
func NewResumeHandler(resumes *service.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumes: resumes}
}

// Save godoc
// @Summary Create a resume
// @Description Stores the resume and runs ATS analysis on its content
// @Tags Resumes
// @Accept json
// @Produce json
// @Param payload body models.SaveResumeRequest true "Resume payload"
// @Success 201 {object} response.Envelope
// @Router /resumes [post]
func (h *ResumeHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.SaveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resume payload"))
		return
	}
	resume, err := h.resumes.Save(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resume)
}

// Update godoc
// @Summary Update a resume
// @Tags Resumes
// @Accept json
// @Produce json
// @Param id path string true "Resume ID"
// @Param payload body models.SaveResumeRequest true "Resume payload"
// @Success 200 {object} response.Envelope
// @Router /resumes/{id} [put]
func (h *ResumeHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.SaveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resume payload"))
		return
	}
	resume, err := h.resumes.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resume, nil)
}

// Get godoc
// @Summary Get a resume
// @Tags Resumes
// @Produce json
// @Param id path string true "Resume ID"
// @Success 200 {object} response.Envelope
// @Router /resumes/{id} [get]
func (h *ResumeHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resume, err := h.resumes.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resume, nil)
}

// List godoc
// @Summary List own resumes
// @Tags Resumes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resumes [get]
func (h *ResumeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	resumes, err := h.resumes.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resumes, nil)
}

// Delete godoc
// @Summary Delete a resume
// @Tags Resumes
// @Produce json
// @Param id path string true "Resume ID"
// @Success 204 {object} response.Envelope
// @Router /resumes/{id} [delete]
func (h *ResumeHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.resumes.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Analyze godoc
// @Summary Score resume content without saving
// @Description Runs the ATS analyzer over the submitted content
// @Tags Resumes
// @Accept json
// @Produce json
// @Param payload body models.ResumeContent true "Resume content"
// @Success 200 {object} response.Envelope
// @Router /resumes/analyze [post]
func (h *ResumeHandler) Analyze(c *gin.Context) {
	var content models.ResumeContent
	if err := c.ShouldBindJSON(&content); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resume content"))
		return
	}
	analysis := h.resumes.Analyze(c.Request.Context(), content)
	response.JSON(c, http.StatusOK, analysis, nil)
}

// Templates godoc
// @Summary List resume templates
// @Tags Resumes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resumes/templates [get]
func (h *ResumeHandler) Templates(c *gin.Context) {
	templates, err := h.resumes.Templates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Render godoc
// @Summary Render a resume as PDF
// @Tags Resumes
// @Produce application/pdf
// @Param id path string true "Resume ID"
// @Success 200 {file} file
// @Router /resumes/{id}/render [get]
func (h *ResumeHandler) Render(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	path, err := h.resumes.Render(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=resume.pdf")
	c.File(path)
}
