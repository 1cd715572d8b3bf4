package core

import (
	"context"
	"io"
)

type UploadedFile struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// FileStorage is any service that can persist an uploaded file
// and hand back publicly reachable URLs for it.
type FileStorage interface {
	Save(ctx context.Context, r io.Reader, filename string) (UploadedFile, error)
}
