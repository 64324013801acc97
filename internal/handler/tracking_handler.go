package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azinedine/school-manager-api/internal/service"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/response"
)

// TrackingHandler exposes term tracking endpoints.
type TrackingHandler struct {
	tracking *service.TrackingService
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// Get godoc
// @Summary Get a student's term tracking record
// @Tags Tracking
// @Produce json
// @Param id path string true "Student id"
// @Param term query int true "Term (1-3)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/tracking [get]
func (h *TrackingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	term, err := strconv.Atoi(c.DefaultQuery("term", "1"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term must be an integer"))
		return
	}
	tracking, err := h.tracking.Get(c.Request.Context(), c.Param("id"), claims.UserID, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tracking, nil)
}

// Upsert godoc
// @Summary Toggle a student's term tracking flags
// @Description Checkpoint timestamps are stamped only on a false to true transition.
// @Tags Tracking
// @Accept json
// @Produce json
// @Param id path string true "Student id"
// @Param payload body service.UpsertTrackingRequest true "Tracking payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/tracking [put]
func (h *TrackingHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tracking, err := h.tracking.Upsert(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tracking, nil)
}
