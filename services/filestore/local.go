package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tantsukool/backend/core"
)

// localStorage writes uploads to a directory served as static files
// by the API server.
type localStorage struct {
	dir     string
	baseURL string
}

var _ core.FileStorage = (*localStorage)(nil)

func NewLocalStorage() (core.FileStorage, error) {
	dir := core.Conf.Uploads.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating uploads dir")
	}
	return &localStorage{
		dir:     dir,
		baseURL: strings.TrimRight(core.Conf.Uploads.BaseURL, "/"),
	}, nil
}

func (st *localStorage) Save(_ context.Context, r io.Reader, filename string) (core.UploadedFile, error) {
	// random names; the original name only contributes the extension
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))

	f, err := os.Create(filepath.Join(st.dir, name))
	if err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "creating upload file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return core.UploadedFile{}, errors.Wrap(err, "writing upload file")
	}

	url := st.baseURL + "/" + path.Clean(name)
	return core.UploadedFile{URL: url, ThumbnailURL: url}, nil
}
