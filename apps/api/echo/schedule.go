package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tantsukool/backend/core/schedule"
)

type scheduleApi struct {
	svc  *schedule.Service
	opts *Options
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := scheduleApi{svc: opts.ScheduleSvc, opts: opts}

	sg := g.Group("/schedules", jwt, staffMiddleware())

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/cancel", api.cancel)
	dg.POST("/attendance", api.markAttendance)
	dg.GET("/attendance", api.attendanceSheet)
}

// Handlers

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	sched, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := api.checkAccess(ctx, sched); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) cancel(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	sched, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := api.checkAccess(ctx, sched); err != nil {
		return err
	}
	if err := api.svc.Cancel(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) markAttendance(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	sched, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := api.checkAccess(ctx, sched); err != nil {
		return err
	}

	var data schedule.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	markedBy, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	marks, err := api.svc.Mark(ctx.Request().Context(), id, markedBy, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *scheduleApi) attendanceSheet(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	sched, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := api.checkAccess(ctx, sched); err != nil {
		return err
	}

	sheet, err := api.svc.AttendanceSheet(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sheet)
}

func (api *scheduleApi) checkAccess(ctx echo.Context, sched schedule.Schedule) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.CanAccessGroup(sched.Group) {
		return errHttpNotFound
	}
	return nil
}
