package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tantsukool/backend/core/parent"
)

type parentApi struct {
	svc *parent.Service
}

func registerParentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *parent.Service) {
	api := parentApi{svc: svc}

	pg := g.Group("/parents", jwt, adminMiddleware())
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update)
}

// Handlers

func (api *parentApi) query(ctx echo.Context) error {
	parents, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	if parents == nil {
		parents = []parent.Parent{}
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *parentApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data parent.UpdateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}
