package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/azinedine/school-manager-api/internal/service"
	appErrors "github.com/azinedine/school-manager-api/pkg/errors"
	"github.com/azinedine/school-manager-api/pkg/response"
)

// ExportHandler exposes the weekly sheet export endpoint.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// WeeklySheet godoc
// @Summary Export a class's weekly review sheet
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class id"
// @Param year query int true "ISO year"
// @Param week query int true "ISO week number"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /classes/{classId}/weekly-reviews/export [get]
func (h *ExportHandler) WeeklySheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be an integer"))
		return
	}
	week, err := strconv.Atoi(c.Query("week"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be an integer"))
		return
	}
	format := c.DefaultQuery("format", service.FormatCSV)

	file, err := h.exports.WeeklySheet(c.Request.Context(), c.Param("classId"), claims.UserID, year, week, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.FileName))
	c.Data(200, file.ContentType, file.Content)
}
