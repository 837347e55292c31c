package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/lingoforge/authoring-service/internal/services"
	"github.com/lingoforge/authoring-service/internal/utils"
	"github.com/lingoforge/authoring-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	draftService  services.DraftService
	submitService services.SubmitService
	validator     *validator.Validator
}

func NewSessionHandler(
	draftService services.DraftService,
	submitService services.SubmitService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:   NewBaseHandler(logger),
		draftService:  draftService,
		submitService: submitService,
		validator:     validator,
	}
}

// StartSession opens an authoring session for a lesson
// @Summary Start authoring session
// @Description Opens a session with a fresh draft, or loads an existing question for editing
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Session target"
// @Success 201 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting authoring session")

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validator.ToValidationErrors(err),
		})
		return
	}

	session, err := h.draftService.StartSession(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the current session state
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AuthoringSession
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.draftService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AbandonSession discards a session and its draft
// @Summary Abandon session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Abandoning authoring session", "session_id", id)

	if err := h.draftService.AbandonSession(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setQuestionTypeRequest struct {
	QuestionType models.QuestionType `json:"question_type" validate:"required,question_type"`
}

// SetQuestionType switches the draft's question type
// @Summary Set question type
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/type [put]
func (h *SessionHandler) SetQuestionType(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req setQuestionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validator.ToValidationErrors(err),
		})
		return
	}

	session, err := h.draftService.SetQuestionType(c.Request.Context(), id, req.QuestionType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateFields applies partial edits to the draft's text fields
// @Summary Update draft fields
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param fields body services.UpdateFieldsRequest true "Partial edits"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/fields [patch]
func (h *SessionHandler) UpdateFields(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req services.UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.draftService.UpdateFields(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AttachImage attaches a question image to the draft
// @Summary Attach question image
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Image file"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/media/image [post]
func (h *SessionHandler) AttachImage(c *gin.Context) {
	h.attachFile(c, func(id string, file *models.PendingFile) (*services.AuthoringSession, error) {
		return h.draftService.AttachImage(c.Request.Context(), id, file)
	})
}

// AttachAudio attaches a question audio clip to the draft
// @Summary Attach question audio
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Audio file"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/media/audio [post]
func (h *SessionHandler) AttachAudio(c *gin.Context) {
	h.attachFile(c, func(id string, file *models.PendingFile) (*services.AuthoringSession, error) {
		return h.draftService.AttachAudio(c.Request.Context(), id, file)
	})
}

// AttachOptionImage attaches an image to a listen-and-match option slot
// @Summary Attach option image
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Option slot"
// @Param file formData file true "Image file"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/media/options/{index} [post]
func (h *SessionHandler) AttachOptionImage(c *gin.Context) {
	index := ParseIndexParam(c, "index")
	if index < 0 {
		return
	}
	h.attachFile(c, func(id string, file *models.PendingFile) (*services.AuthoringSession, error) {
		return h.draftService.AttachOptionImage(c.Request.Context(), id, index, file)
	})
}

// AddPair appends an empty matching pair
// @Summary Add matching pair
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AuthoringSession
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/pairs [post]
func (h *SessionHandler) AddPair(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	session, err := h.draftService.AddPair(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// RemovePair deletes one matching pair
// @Summary Remove matching pair
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Pair index"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/pairs/{index} [delete]
func (h *SessionHandler) RemovePair(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index := ParseIndexParam(c, "index")
	if index < 0 {
		return
	}

	session, err := h.draftService.RemovePair(c.Request.Context(), id, index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdatePair edits one pair's left anchor, candidate right or correct right
// @Summary Update matching pair
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Pair index"
// @Param pair body services.UpdatePairRequest true "Partial pair edits"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/pairs/{index} [patch]
func (h *SessionHandler) UpdatePair(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	index := ParseIndexParam(c, "index")
	if index < 0 {
		return
	}

	var req services.UpdatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.draftService.UpdatePair(c.Request.Context(), id, index, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// AttachPairMedia binds a media file to a pair's left anchor
// @Summary Attach pair media
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param index path int true "Pair index"
// @Param file formData file true "Media file"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/pairs/{index}/media [post]
func (h *SessionHandler) AttachPairMedia(c *gin.Context) {
	index := ParseIndexParam(c, "index")
	if index < 0 {
		return
	}
	h.attachFile(c, func(id string, file *models.PendingFile) (*services.AuthoringSession, error) {
		return h.draftService.AttachPairMedia(c.Request.Context(), id, index, file)
	})
}

type setLeftMediaTypeRequest struct {
	LeftType models.LeftMediaType `json:"left_type" validate:"required,left_media_type"`
}

// SetLeftMediaType switches how pair left anchors are represented
// @Summary Set pair left media type
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.AuthoringSession
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/pairs/left-type [put]
func (h *SessionHandler) SetLeftMediaType(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	var req setLeftMediaTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validator.ToValidationErrors(err),
		})
		return
	}

	session, err := h.draftService.SetLeftMediaType(c.Request.Context(), id, req.LeftType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Submit runs the submission pipeline for the session's draft
// @Summary Submit draft
// @Description Validates the draft, creates or updates the question, uploads pending media and finalizes
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Submitting draft", "session_id", id)

	result, err := h.submitService.Submit(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SessionHandler) attachFile(c *gin.Context, attach func(id string, file *models.PendingFile) (*services.AuthoringSession, error)) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}

	file, err := ReadUploadedFile(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
		})
		return
	}

	session, err := attach(id, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var mediaErr *services.MediaUploadError
	if errors.As(err, &mediaErr) {
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Media upload failed",
			Details: map[string]interface{}{
				"item":     mediaErr.Item,
				"filename": mediaErr.Filename,
				"reason":   mediaErr.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Session not found",
		})
	case errors.Is(err, services.ErrQuestionNotFound), errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Not found",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A submission is already in progress for this session",
		})
	case errors.Is(err, services.ErrQuestionLimitReached),
		errors.Is(err, models.ErrPairLimitReached):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrPairIndexOutOfRange),
		errors.Is(err, models.ErrOptionIndexOutOfRange),
		errors.Is(err, models.ErrLeftAnchorNotText),
		errors.Is(err, models.ErrLeftAnchorNotMedia),
		errors.Is(err, models.ErrInvalidTrueFalse),
		errors.Is(err, services.ErrBadRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsFatalCreate(err), errors.Is(err, services.ErrFinalizeFailed):
		h.LogError(c, err, "Submission pipeline failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Question service request failed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
