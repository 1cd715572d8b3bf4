package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tantsukool/backend/core/update"
)

type updateApi struct {
	svc  *update.Service
	opts *Options
}

func registerUpdateAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := updateApi{svc: opts.UpdateSvc, opts: opts}

	ug := g.Group("/updates", jwt, staffMiddleware())

	dg := ug.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/comments", api.comment)
	dg.DELETE("/comments/:commentID", api.destroyComment, adminMiddleware())
}

// Handlers

func (api *updateApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	u, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.CanAccessGroup(u.Group) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, u)
}

func (api *updateApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *updateApi) comment(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	u, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.CanAccessGroup(u.Group) {
		return errHttpNotFound
	}

	var data update.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	u, err = api.svc.Comment(ctx.Request().Context(), id, author, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, u)
}

func (api *updateApi) destroyComment(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	commentID, err := objectIDParam(ctx, "commentID")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteComment(ctx.Request().Context(), id, commentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
