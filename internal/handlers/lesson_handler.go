package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/repositories"
	"github.com/lingoforge/authoring-service/internal/services"
	"github.com/lingoforge/authoring-service/internal/utils"
)

type LessonHandler struct {
	BaseHandler
	importExport services.ImportExportService
	auditRepo    repositories.SubmissionAuditRepository
}

func NewLessonHandler(
	importExport services.ImportExportService,
	auditRepo repositories.SubmissionAuditRepository,
	logger utils.Logger,
) *LessonHandler {
	return &LessonHandler{
		BaseHandler:  NewBaseHandler(logger),
		importExport: importExport,
		auditRepo:    auditRepo,
	}
}

// ImportQuestions bulk-creates questions from an uploaded spreadsheet
// @Summary Import questions
// @Description Accepts a CSV or Excel file and creates one question per valid row
// @Tags lessons
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Lesson ID"
// @Param file formData file true "CSV or Excel file"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /lessons/{id}/questions/import [post]
func (h *LessonHandler) ImportQuestions(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "id")
	if lessonID == "" {
		return
	}

	h.LogRequest(c, "Importing questions", "lesson_id", lessonID)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportQuestionsFromFile(c.Request.Context(), lessonID, file, header.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions downloads a lesson's questions as a spreadsheet
// @Summary Export questions
// @Tags lessons
// @Produce application/octet-stream
// @Param id path string true "Lesson ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /lessons/{id}/questions/export [get]
func (h *LessonHandler) ExportQuestions(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "id")
	if lessonID == "" {
		return
	}

	format := c.DefaultQuery("format", "csv")
	h.LogRequest(c, "Exporting questions", "lesson_id", lessonID, "format", format)

	var (
		data        []byte
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "csv":
		data, err = h.importExport.ExportQuestionsToCSV(c.Request.Context(), lessonID)
		contentType = "text/csv"
		filename = fmt.Sprintf("lesson_%s_questions.csv", lessonID)
	case "xlsx":
		data, err = h.importExport.ExportQuestionsToExcel(c.Request.Context(), lessonID)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = fmt.Sprintf("lesson_%s_questions.xlsx", lessonID)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: format,
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// ListAudits returns the submission audit trail for a lesson
// @Summary List submission audits
// @Tags lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Param status query string false "Filter by submission status"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /lessons/{id}/audits [get]
func (h *LessonHandler) ListAudits(c *gin.Context) {
	lessonID := ParseStringIDParam(c, "id")
	if lessonID == "" {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	audits, total, err := h.auditRepo.List(c.Request.Context(), repositories.ListAuditFilters{
		LessonID: lessonID,
		Status:   models.SubmissionStatus(c.Query("status")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		h.LogError(c, err, "Failed to list submission audits", "lesson_id", lessonID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to list submission audits",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": audits,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *LessonHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: validationError.Message,
			Details: validationError,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Not found",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
