package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azinedine/school-manager-api/internal/models"
	"github.com/azinedine/school-manager-api/internal/service"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/response"
)

// ReviewHandler exposes weekly review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler constructs handler.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Summary godoc
// @Summary Weekly class summary
// @Description Per-student status for the current ISO week with last week's review and pending alerts.
// @Tags WeeklyReviews
// @Produce json
// @Param classId path string true "Class id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/weekly-reviews/summary [get]
func (h *ReviewHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.reviews.Summary(c.Request.Context(), c.Param("classId"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// List godoc
// @Summary List weekly reviews
// @Tags WeeklyReviews
// @Produce json
// @Param classId path string true "Class id"
// @Param year query int false "ISO year"
// @Param week query int false "ISO week number"
// @Param student_id query string false "Filter by student"
// @Param pending_only query bool false "Only unresolved issues"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/weekly-reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.WeeklyReviewFilter{
		StudentID:   c.Query("student_id"),
		PendingOnly: c.Query("pending_only") == "true",
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
			return
		}
		filter.Year = &year
	}
	if raw := c.Query("week"); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
			return
		}
		filter.Week = &week
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	reviews, total, err := h.reviews.List(c.Request.Context(), c.Param("classId"), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, reviews, pagination)
}

// Batch godoc
// @Summary Batch upsert weekly reviews
// @Description Writes a full week of reviews for a class in one transaction. Overwrites reset alert state.
// @Tags WeeklyReviews
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body service.BatchUpsertReviewsRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/weekly-reviews/batch [post]
func (h *ReviewHandler) Batch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BatchUpsertReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	reviews, err := h.reviews.BatchUpsert(c.Request.Context(), c.Param("classId"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Patch godoc
// @Summary Patch a weekly review
// @Description Partial update of observation fields. Alert state is never modified here.
// @Tags WeeklyReviews
// @Accept json
// @Produce json
// @Param id path string true "Review id"
// @Param payload body models.WeeklyReviewPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /weekly-reviews/{id} [patch]
func (h *ReviewHandler) Patch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var patch models.WeeklyReviewPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.reviews.Patch(c.Request.Context(), c.Param("id"), claims.UserID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Resolve godoc
// @Summary Resolve a weekly review alert
// @Tags WeeklyReviews
// @Produce json
// @Param id path string true "Review id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /weekly-reviews/{id}/resolve [post]
func (h *ReviewHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	review, err := h.reviews.Resolve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}

// Delete godoc
// @Summary Delete a weekly review
// @Tags WeeklyReviews
// @Param id path string true "Review id"
// @Success 204
// @Security BearerAuth
// @Router /weekly-reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
