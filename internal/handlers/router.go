package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/repositories"
	"github.com/lingoforge/authoring-service/internal/services"
	"github.com/lingoforge/authoring-service/internal/utils"
	"github.com/lingoforge/authoring-service/internal/validator"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	mediaHandler   *MediaHandler
	lessonHandler  *LessonHandler
}

func NewHandlerManager(
	draftService services.DraftService,
	submitService services.SubmitService,
	mediaResolver services.MediaResolver,
	importExport services.ImportExportService,
	auditRepo repositories.SubmissionAuditRepository,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(draftService, submitService, validator, logger),
		mediaHandler:   NewMediaHandler(mediaResolver, logger),
		lessonHandler:  NewLessonHandler(importExport, auditRepo, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authoring session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.StartSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.AbandonSession)
			sessions.PUT("/:id/type", hm.sessionHandler.SetQuestionType)
			sessions.PATCH("/:id/fields", hm.sessionHandler.UpdateFields)
			sessions.POST("/:id/submit", hm.sessionHandler.Submit)

			// Question-level media slots
			sessions.POST("/:id/media/image", hm.sessionHandler.AttachImage)
			sessions.POST("/:id/media/audio", hm.sessionHandler.AttachAudio)
			sessions.POST("/:id/media/options/:index", hm.sessionHandler.AttachOptionImage)

			// Matching pair management
			sessions.POST("/:id/pairs", hm.sessionHandler.AddPair)
			sessions.PUT("/:id/pairs/left-type", hm.sessionHandler.SetLeftMediaType)
			sessions.PATCH("/:id/pairs/:index", hm.sessionHandler.UpdatePair)
			sessions.DELETE("/:id/pairs/:index", hm.sessionHandler.RemovePair)
			sessions.POST("/:id/pairs/:index/media", hm.sessionHandler.AttachPairMedia)
		}

		// Media preview routes
		media := v1.Group("/media")
		{
			media.GET("/preview", hm.mediaHandler.GetPreviewURL)
			media.DELETE("/preview", hm.mediaHandler.InvalidatePreviewURL)
		}

		// Lesson-level bulk routes
		lessons := v1.Group("/lessons")
		{
			lessons.POST("/:id/questions/import", hm.lessonHandler.ImportQuestions)
			lessons.GET("/:id/questions/export", hm.lessonHandler.ExportQuestions)
			lessons.GET("/:id/audits", hm.lessonHandler.ListAudits)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "authoring-service",
		})
	})
}
