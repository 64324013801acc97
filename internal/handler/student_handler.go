package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azinedine/school-manager-api/internal/service"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/response"
)

// StudentHandler exposes roster management endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// MoveStudentRequest is the payload for moving a student between classes.
type MoveStudentRequest struct {
	ClassID string `json:"class_id" binding:"required"`
}

// Add godoc
// @Summary Add a student to a class
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body service.StudentPayload true "Student payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/students [post]
func (h *StudentHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.StudentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Add(c.Request.Context(), c.Param("classId"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// BatchImport godoc
// @Summary Import several students at once
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body service.BatchImportStudentsRequest true "Import payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/students/batch [post]
func (h *StudentHandler) BatchImport(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.BatchImportStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	students, err := h.students.BatchImport(c.Request.Context(), c.Param("classId"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, students)
}

// Update godoc
// @Summary Update a student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student id"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [patch]
func (h *StudentHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Move godoc
// @Summary Move a student to another class
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student id"
// @Param payload body MoveStudentRequest true "Target class"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id}/move [post]
func (h *StudentHandler) Move(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req MoveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Move(c.Request.Context(), c.Param("id"), req.ClassID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Reorder godoc
// @Summary Reorder a class roster
// @Tags Students
// @Accept json
// @Produce json
// @Param classId path string true "Class id"
// @Param payload body service.ReorderStudentsRequest true "Ordered student ids"
// @Success 204
// @Security BearerAuth
// @Router /classes/{classId}/students/reorder [post]
func (h *StudentHandler) Reorder(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReorderStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.students.Reorder(c.Request.Context(), c.Param("classId"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Param id path string true "Student id"
// @Success 204
// @Security BearerAuth
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.students.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Roster godoc
// @Summary Class roster with term grades and tracking
// @Tags Students
// @Produce json
// @Param classId path string true "Class id"
// @Param term query int true "Term (1-3)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{classId}/roster [get]
func (h *StudentHandler) Roster(c *gin.Context) {
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
	rows, err := h.students.Roster(c.Request.Context(), c.Param("classId"), claims.UserID, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
