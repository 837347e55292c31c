package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// UploadAuthorization is a short-lived permission to write one object
// directly to storage, bypassing the application server.
type UploadAuthorization struct {
	URL        string `json:"url"`
	ObjectName string `json:"objectName"`
}

// UploadAuthRequest scopes an authorization to the question being authored so
// the object lands under uploads/<course>/<lesson>/<question>/.
type UploadAuthRequest struct {
	Filename   string
	MimeType   string
	CourseID   string
	LessonID   string
	QuestionID string
}

// MediaService is the signed-URL issuing collaborator.
type MediaService interface {
	UploadAuthorization(ctx context.Context, req UploadAuthRequest) (*UploadAuthorization, error)
	SignedReadURL(ctx context.Context, objectPath string) (string, error)
}

// StorageTransfer performs the direct write of raw bytes to the storage
// endpoint using a previously issued authorization.
type StorageTransfer interface {
	Put(ctx context.Context, uploadURL, mimeType string, data []byte) error
}

type mediaServiceClient struct {
	baseURL string
	client  *http.Client
	token   TokenSource
}

// NewMediaServiceClient returns a client implementing both MediaService and
// StorageTransfer. The upload timeout bounds the direct PUT, whose payload can
// be much larger than any API call.
func NewMediaServiceClient(baseURL string, token TokenSource, uploadTimeout time.Duration) *mediaServiceClient {
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	return &mediaServiceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: uploadTimeout},
		token:   token,
	}
}

func (c *mediaServiceClient) UploadAuthorization(ctx context.Context, req UploadAuthRequest) (*UploadAuthorization, error) {
	params := url.Values{}
	params.Set("filename", req.Filename)
	params.Set("type", req.MimeType)
	params.Set("course_id", req.CourseID)
	params.Set("lesson_id", req.LessonID)
	params.Set("question_id", req.QuestionID)

	var auth UploadAuthorization
	if err := c.get(ctx, "/media/upload-url?"+params.Encode(), &auth); err != nil {
		return nil, fmt.Errorf("failed to get upload authorization for %s: %w", req.Filename, err)
	}
	return &auth, nil
}

func (c *mediaServiceClient) SignedReadURL(ctx context.Context, objectPath string) (string, error) {
	params := url.Values{}
	params.Set("object", objectPath)

	var result struct {
		URL string `json:"url"`
	}
	if err := c.get(ctx, "/media/signed-url?"+params.Encode(), &result); err != nil {
		return "", fmt.Errorf("failed to get signed read url for %s: %w", objectPath, err)
	}
	return result.URL, nil
}

// Put writes the file bytes straight to storage with the file's MIME type as
// Content-Type, as the signed URL was issued for.
func (c *mediaServiceClient) Put(ctx context.Context, uploadURL, mimeType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("storage transfer failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage transfer failed with status %d", resp.StatusCode)
	}
	return nil
}

func (c *mediaServiceClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return json.Unmarshal(data, dest)
}
