package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tantsukool/backend/core"
)

type uploadApi struct {
	store core.FileStorage
}

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc, store core.FileStorage) {
	api := uploadApi{store: store}

	g.POST("/uploads", api.create, jwt, staffMiddleware())
}

// create stores a multipart "file" and returns its URLs; the client then
// references them from an activity update.
func (api *uploadApi) create(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	uploaded, err := api.store.Save(ctx.Request().Context(), f, fh.Filename)
	if err != nil {
		return errors.Wrap(err, "saving uploaded file")
	}
	return ctx.JSON(http.StatusCreated, uploaded)
}
