package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/services"
	"github.com/lingoforge/authoring-service/internal/utils"
)

type MediaHandler struct {
	BaseHandler
	resolver services.MediaResolver
}

func NewMediaHandler(resolver services.MediaResolver, logger utils.Logger) *MediaHandler {
	return &MediaHandler{
		BaseHandler: NewBaseHandler(logger),
		resolver:    resolver,
	}
}

// GetPreviewURL resolves a stored object path into a signed read URL
// @Summary Resolve media preview URL
// @Tags media
// @Produce json
// @Param object query string true "Object path"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /media/preview [get]
func (h *MediaHandler) GetPreviewURL(c *gin.Context) {
	objectPath := strings.TrimSpace(c.Query("object"))
	if objectPath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing object parameter",
		})
		return
	}

	url, err := h.resolver.ResolveObjectPath(c.Request.Context(), objectPath)
	if err != nil {
		if errors.Is(err, services.ErrBadRequest) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
			return
		}
		h.LogError(c, err, "Failed to resolve preview url", "object", objectPath)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Failed to resolve preview URL",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// InvalidatePreviewURL drops a cached signed URL
// @Summary Invalidate cached preview URL
// @Tags media
// @Param object query string true "Object path"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /media/preview [delete]
func (h *MediaHandler) InvalidatePreviewURL(c *gin.Context) {
	objectPath := strings.TrimSpace(c.Query("object"))
	if objectPath == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing object parameter",
		})
		return
	}

	if err := h.resolver.InvalidateObjectPath(c.Request.Context(), objectPath); err != nil {
		h.LogError(c, err, "Failed to invalidate preview url", "object", objectPath)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to invalidate preview URL",
		})
		return
	}
	c.Status(http.StatusNoContent)
}
