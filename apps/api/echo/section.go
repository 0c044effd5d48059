package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core/school"
	"github.com/trezcool/rekodi/core/user"
)

type sectionApi struct {
	svc      school.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerSectionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc school.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := sectionApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/sections", jwt)

	sg.POST("", api.create, adminMiddleware())
	sg.GET("", api.query, staffMiddleware())
	sg.GET("/:id", api.retrieve, staffMiddleware())
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())
}

func (api *sectionApi) create(ctx echo.Context) error {
	var data school.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating section")
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *sectionApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Section{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	secs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if secs == nil {
		secs = []school.Section{}
	}
	return ctx.JSON(http.StatusOK, secs)
}

func (api *sectionApi) retrieve(ctx echo.Context) error {
	sec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) update(ctx echo.Context) error {
	var data school.UpdateSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSection")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting sections")
	}
	return ctx.NoContent(http.StatusNoContent)
}
