package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lingoforge/authoring-service/internal/cache"
	"github.com/lingoforge/authoring-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMediaResolver_CachesSignedURLs(t *testing.T) {
	media := &MockMediaService{}
	media.On("SignedReadURL", mock.Anything, "uploads/dog.png").
		Return("https://signed/dog.png", nil).Once()

	resolver := NewMediaResolver(media, cache.NewMemoryCache(), time.Minute, slog.Default())
	ctx := context.Background()

	url, err := resolver.ResolveObjectPath(ctx, "uploads/dog.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/dog.png", url)

	// Second resolve is served from cache.
	url, err = resolver.ResolveObjectPath(ctx, "uploads/dog.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/dog.png", url)
	media.AssertExpectations(t)
}

func TestMediaResolver_InvalidateForcesRefresh(t *testing.T) {
	media := &MockMediaService{}
	media.On("SignedReadURL", mock.Anything, "uploads/dog.png").
		Return("https://signed/dog.png", nil).Twice()

	resolver := NewMediaResolver(media, cache.NewMemoryCache(), time.Minute, slog.Default())
	ctx := context.Background()

	_, err := resolver.ResolveObjectPath(ctx, "uploads/dog.png")
	require.NoError(t, err)

	require.NoError(t, resolver.InvalidateObjectPath(ctx, "uploads/dog.png"))

	_, err = resolver.ResolveObjectPath(ctx, "uploads/dog.png")
	require.NoError(t, err)
	media.AssertExpectations(t)
}

func TestMediaResolver_ResolveRef(t *testing.T) {
	media := &MockMediaService{}
	media.On("SignedReadURL", mock.Anything, "uploads/clip.mp3").
		Return("https://signed/clip.mp3", nil)

	resolver := NewMediaResolver(media, cache.NewMemoryCache(), time.Minute, slog.Default())
	ctx := context.Background()

	empty, err := resolver.ResolveRef(ctx, models.EmptyMedia())
	require.NoError(t, err)
	assert.Equal(t, models.MediaEmpty, empty.State)
	assert.Empty(t, empty.URL)

	pending, err := resolver.ResolveRef(ctx, models.PendingMedia(&models.PendingFile{Name: "clip.mp3"}))
	require.NoError(t, err)
	assert.Equal(t, models.MediaPending, pending.State)
	assert.Equal(t, "clip.mp3", pending.Name)
	assert.Empty(t, pending.URL)

	uploaded, err := resolver.ResolveRef(ctx, models.UploadedMedia("uploads/clip.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "https://signed/clip.mp3", uploaded.URL)
}

func TestMediaResolver_EmptyObjectPath(t *testing.T) {
	resolver := NewMediaResolver(&MockMediaService{}, cache.NewMemoryCache(), time.Minute, slog.Default())

	_, err := resolver.ResolveObjectPath(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}
