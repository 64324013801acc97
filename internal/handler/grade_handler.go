package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azinedine/school-manager-api/internal/service"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/response"
)

// GradeHandler exposes term gradebook endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Get godoc
// @Summary Get a student's term grade
// @Tags Grades
// @Produce json
// @Param id path string true "Student id"
// @Param term query int true "Term (1-3)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/grades [get]
func (h *GradeHandler) Get(c *gin.Context) {
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
	grade, err := h.grades.Get(c.Request.Context(), c.Param("id"), claims.UserID, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Upsert godoc
// @Summary Upsert a student's term grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Student id"
// @Param payload body service.UpsertTermGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/grades [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertTermGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Upsert(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Bulk godoc
// @Summary Bulk upsert term grades for a class
// @Description Students outside the class roster are skipped and reported, not failed.
// @Tags Grades
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body service.BulkUpsertGradesRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/grades/bulk [post]
func (h *GradeHandler) Bulk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BulkUpsertGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.BulkUpsert(c.Request.Context(), c.Param("classId"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
