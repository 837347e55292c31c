package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lingoforge/authoring-service/internal/models"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// ParseIndexParam reads a zero-based index path parameter. Returns -1 and
// writes the response when the value is not a non-negative integer.
func ParseIndexParam(c *gin.Context, param string) int {
	idx, err := strconv.Atoi(c.Param(param))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "index must be a non-negative integer",
		})
		return -1
	}
	return idx
}

// ReadUploadedFile pulls one multipart file into a PendingFile. The media
// pipeline needs the bytes in memory; upload size is bounded by gin's
// multipart memory settings at router level.
func ReadUploadedFile(header *multipart.FileHeader) (*models.PendingFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &models.PendingFile{
		Name:     header.Filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}
