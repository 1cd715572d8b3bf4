package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/student"
)

type studentApi struct {
	svc       *student.Service
	rosterSvc *roster.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := studentApi{svc: opts.StudentSvc, rosterSvc: opts.RosterSvc}

	sg := g.Group("/students", jwt, staffMiddleware())
	sg.GET("", api.query, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.PUT("/group", api.attach, adminMiddleware())
	dg.DELETE("/group", api.detach, adminMiddleware())
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// teachers only see students of their own groups
	if !claims.IsAdmin && (s.Group == nil || !claims.CanAccessGroup(*s.Group)) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	s, err := api.svc.UpdateInfo(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if data.GroupID != "" {
		gid, _ := primitive.ObjectIDFromHex(data.GroupID)
		if err := api.rosterSvc.AttachStudentToGroup(reqCtx, id, gid); err != nil {
			return err
		}
	}
	if data.ParentEmail != "" {
		if s, err = api.rosterSvc.ChangeParent(reqCtx, id, data.ParentEmail, data.ParentName); err != nil {
			return err
		}
	}
	if data.GroupID != "" || data.ParentEmail != "" {
		if s, err = api.svc.GetByID(reqCtx, id); err != nil {
			return err
		}
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.rosterSvc.DeleteStudents(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	ids := make([]primitive.ObjectID, 0, len(query.IDs))
	for _, raw := range query.IDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "id", Error: "invalid id: " + raw})
		}
		ids = append(ids, id)
	}

	if err := api.rosterSvc.DeleteStudents(ctx.Request().Context(), ids...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) attach(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data AttachRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttachRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}
	gid, _ := primitive.ObjectIDFromHex(data.GroupID)

	if err := api.rosterSvc.AttachStudentToGroup(ctx.Request().Context(), id, gid); err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) detach(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.rosterSvc.DetachStudentFromGroup(ctx.Request().Context(), id); err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

type AttachRequest struct {
	GroupID string `json:"group_id" validate:"required,objectid"`
}
