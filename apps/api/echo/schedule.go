package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core/schedule"
	"github.com/trezcool/rekodi/core/user"
)

type scheduleApi struct {
	svc      schedule.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerScheduleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc schedule.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := scheduleApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/schedules", jwt)

	sg.GET("", api.query, staffMiddleware())
	sg.POST("", api.create, adminMiddleware())
	sg.POST("/check-conflicts", api.checkConflicts, staffMiddleware())
	sg.GET("/:id", api.retrieve, staffMiddleware())
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sched, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sched)
}

// checkConflicts is a read-only dry run: it reports collisions without
// persisting anything.
func (api *scheduleApi) checkConflicts(ctx echo.Context) error {
	var data schedule.Candidate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Candidate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conflicts, err := api.svc.CheckConflicts(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ConflictsResponse{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflictList(conflicts),
	})
}

func (api *scheduleApi) query(ctx echo.Context) error {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Schedule{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	scheds, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if scheds == nil {
		scheds = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, scheds)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	sched, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sched, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *scheduleApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting schedules")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type ConflictsResponse struct {
	HasConflicts bool                `json:"has_conflicts"`
	Conflicts    []schedule.Conflict `json:"conflicts"`
}
