package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placementhub/placement-api/internal/models"
	"github.com/placementhub/placement-api/internal/service"
	appErrors "github.com/placementhub/placement-api/pkg/errors"
	"github.com/placementhub/placement-api/pkg/response"
)

// EligibilityHandler exposes eligibility rule and evaluation endpoints.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility}
}

// CreateRule godoc
// @Summary Create eligibility rule
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body models.CreateRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Router /eligibility/rules [post]
func (h *EligibilityHandler) CreateRule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	rule, err := h.eligibility.CreateRule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// ListRules godoc
// @Summary List eligibility rules
// @Tags Eligibility
// @Produce json
// @Param active query bool false "Only active rules"
// @Success 200 {object} response.Envelope
// @Router /eligibility/rules [get]
func (h *EligibilityHandler) ListRules(c *gin.Context) {
	rules, err := h.eligibility.ListRules(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// UpdateRule godoc
// @Summary Update eligibility rule
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param payload body models.CreateRuleRequest true "Rule payload"
// @Param active query bool false "Active state"
// @Success 200 {object} response.Envelope
// @Router /eligibility/rules/{id} [put]
func (h *EligibilityHandler) UpdateRule(c *gin.Context) {
	var req models.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rule payload"))
		return
	}
	active := c.DefaultQuery("active", "true") == "true"
	rule, err := h.eligibility.UpdateRule(c.Request.Context(), c.Param("id"), req, active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Check godoc
// @Summary Evaluate own eligibility against a rule
// @Description Returns the per-criterion breakdown and recommendations
// @Tags Eligibility
// @Produce json
// @Param id path string true "Rule ID"
// @Param driveId query string false "Drive context"
// @Success 200 {object} response.Envelope
// @Router /eligibility/rules/{id}/check [post]
func (h *EligibilityHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var driveID *string
	if raw := c.Query("driveId"); raw != "" {
		driveID = &raw
	}
	result, err := h.eligibility.Check(c.Request.Context(), claims.UserID, c.Param("id"), driveID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckDrive godoc
// @Summary Evaluate own eligibility for a drive
// @Description Picks the highest-priority active rule scoped to the drive or global
// @Tags Eligibility
// @Produce json
// @Param id path string true "Drive ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /eligibility/drives/{id}/check [post]
func (h *EligibilityHandler) CheckDrive(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.eligibility.CheckForDrive(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Own eligibility check history
// @Tags Eligibility
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /eligibility/history [get]
func (h *EligibilityHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	results, err := h.eligibility.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Override godoc
// @Summary Grant an eligibility override
// @Description Admits a student to a drive despite a failed rule check
// @Tags Eligibility
// @Accept json
// @Produce json
// @Param payload body models.OverrideRequest true "Override payload"
// @Success 201 {object} response.Envelope
// @Router /eligibility/overrides [post]
func (h *EligibilityHandler) Override(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.eligibility.Override(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, override)
}

// Stats godoc
// @Summary Evaluation stats for a rule
// @Tags Eligibility
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} response.Envelope
// @Router /eligibility/rules/{id}/stats [get]
func (h *EligibilityHandler) Stats(c *gin.Context) {
	stats, err := h.eligibility.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
