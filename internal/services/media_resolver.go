package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lingoforge/authoring-service/internal/cache"
	"github.com/lingoforge/authoring-service/internal/clients"
	"github.com/lingoforge/authoring-service/internal/models"
)

// MediaResolver turns stored object paths into short-lived signed read URLs
// for editor previews. Signed URLs are cached in Redis so re-rendering a
// session does not hammer the media service.
type MediaResolver interface {
	ResolveObjectPath(ctx context.Context, objectPath string) (string, error)
	ResolveRef(ctx context.Context, ref models.MediaRef) (*MediaPreview, error)
	InvalidateObjectPath(ctx context.Context, objectPath string) error
}

// MediaPreview describes how the editor should render a media slot.
type MediaPreview struct {
	State models.MediaState `json:"state"`
	Name  string            `json:"name,omitempty"`
	URL   string            `json:"url,omitempty"`
}

type mediaResolver struct {
	media  clients.MediaService
	cache  cache.CacheService
	ttl    time.Duration
	logger *slog.Logger
}

func NewMediaResolver(media clients.MediaService, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger) MediaResolver {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &mediaResolver{
		media:  media,
		cache:  cacheService,
		ttl:    ttl,
		logger: logger,
	}
}

func signedURLKey(objectPath string) string {
	return "authoring:signed_url:" + objectPath
}

func (r *mediaResolver) ResolveObjectPath(ctx context.Context, objectPath string) (string, error) {
	if objectPath == "" {
		return "", fmt.Errorf("%w: object path is empty", ErrBadRequest)
	}

	if r.cache != nil {
		var cached string
		if err := r.cache.Get(ctx, signedURLKey(objectPath), &cached); err == nil && cached != "" {
			return cached, nil
		}
	}

	url, err := r.media.SignedReadURL(ctx, objectPath)
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		// Cache slightly shorter than the signing window so a cached URL is
		// never handed out already expired.
		if err := r.cache.Set(ctx, signedURLKey(objectPath), url, r.ttl); err != nil {
			r.logger.Warn("Failed to cache signed url", "object", objectPath, "error", err)
		}
	}
	return url, nil
}

func (r *mediaResolver) ResolveRef(ctx context.Context, ref models.MediaRef) (*MediaPreview, error) {
	preview := &MediaPreview{State: ref.State, Name: ref.DisplayName()}
	if ref.IsEmpty() {
		preview.State = models.MediaEmpty
		return preview, nil
	}
	if ref.IsPending() {
		// Nothing to sign yet; the editor previews the local file.
		return preview, nil
	}

	url, err := r.ResolveObjectPath(ctx, ref.ObjectPath)
	if err != nil {
		return nil, err
	}
	preview.URL = url
	return preview, nil
}

func (r *mediaResolver) InvalidateObjectPath(ctx context.Context, objectPath string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, signedURLKey(objectPath))
}
