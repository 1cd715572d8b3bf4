package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tantsukool/backend/core/group"
	"github.com/tantsukool/backend/core/roster"
	"github.com/tantsukool/backend/core/schedule"
	"github.com/tantsukool/backend/core/student"
	"github.com/tantsukool/backend/core/update"
)

type groupApi struct {
	svc         *group.Service
	studentSvc  *student.Service
	rosterSvc   *roster.Service
	updateSvc   *update.Service
	scheduleSvc *schedule.Service
	opts        *Options
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := groupApi{
		svc:         opts.GroupSvc,
		studentSvc:  opts.StudentSvc,
		rosterSvc:   opts.RosterSvc,
		updateSvc:   opts.UpdateSvc,
		scheduleSvc: opts.ScheduleSvc,
		opts:        opts,
	}

	gg := g.Group("/groups", jwt, staffMiddleware())
	gg.GET("", api.query)
	gg.POST("", api.create, adminMiddleware())

	dg := gg.Group("/:id", groupAccessMiddleware())
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.PATCH("/full", api.fullEdit, adminMiddleware())
	dg.GET("/roster.csv", api.rosterCSV)

	dg.GET("/students", api.queryStudents)
	dg.POST("/students", api.enroll, adminMiddleware())

	dg.GET("/updates", api.queryUpdates)
	dg.POST("/updates", api.postUpdate)

	dg.GET("/schedules", api.querySchedules)
	dg.POST("/schedules", api.createSchedules, adminMiddleware())
}

// Handlers

func (api *groupApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var groups []group.Group
	if claims.IsAdmin {
		groups, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		// teachers only see their own groups
		ids := make([]primitive.ObjectID, 0, len(claims.Groups))
		for _, gid := range claims.Groups {
			id, idErr := primitive.ObjectIDFromHex(gid)
			if idErr != nil {
				continue
			}
			ids = append(ids, id)
		}
		groups, err = api.svc.GetByIDs(ctx.Request().Context(), ids)
	}
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	g, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	populated, err := api.svc.Populate(ctx.Request().Context(), g)
	if err != nil {
		return errors.Wrap(err, "populating group")
	}
	return ctx.JSON(http.StatusOK, populated)
}

func (api *groupApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(orig); err != nil {
		return err
	}

	g, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.rosterSvc.DeleteGroup(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// fullEdit is the admin bulk editor: group info, the complete student
// roster and the parent payload in one request.
func (api *groupApi) fullEdit(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	orig, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data roster.FullEdit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FullEdit")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	meta := group.UpdateGroup{Name: data.Name, Location: data.Location, Description: data.Description}
	if err := meta.Validate(orig); err != nil {
		return err
	}
	if _, err := api.svc.Update(ctx.Request().Context(), id, meta); err != nil {
		return errors.Wrap(err, "updating group info")
	}

	g, err := api.rosterSvc.BulkReplaceRoster(ctx.Request().Context(), id, data.StudentIDs, data.Parents)
	if err != nil {
		return err
	}
	populated, err := api.svc.Populate(ctx.Request().Context(), g)
	if err != nil {
		return errors.Wrap(err, "populating group")
	}
	return ctx.JSON(http.StatusOK, populated)
}

func (api *groupApi) rosterCSV(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	data, err := api.svc.RosterCSV(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="roster.csv"`)
	return ctx.Blob(http.StatusOK, "text/csv", data)
}

func (api *groupApi) queryStudents(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	students, err := api.studentSvc.FilterByGroup(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying group students")
	}
	return ctx.JSON(http.StatusOK, students)
}

// enroll creates a student and attaches them (and their parent) to the
// group in one go.
func (api *groupApi) enroll(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	data.GroupID = id.Hex()
	if err := data.Validate(); err != nil {
		return err
	}

	s, err := api.rosterSvc.Enroll(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *groupApi) queryUpdates(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	updates, err := api.updateSvc.QueryByGroup(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying group updates")
	}
	return ctx.JSON(http.StatusOK, updates)
}

func (api *groupApi) postUpdate(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data update.NewUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUpdate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	u, err := api.updateSvc.Create(ctx.Request().Context(), id, author, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, u)
}

func (api *groupApi) querySchedules(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	schedules, err := api.scheduleSvc.QueryByGroup(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying group schedules")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *groupApi) createSchedules(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data schedule.NewScheduleBulk
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewScheduleBulk")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	schedules, err := api.scheduleSvc.CreateBulk(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, schedules)
}
