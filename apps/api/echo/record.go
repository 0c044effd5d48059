package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core/record"
	"github.com/trezcool/rekodi/core/user"
)

type recordApi struct {
	svc      record.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerRecordAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc record.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := recordApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	pg := g.Group("/packages", jwt, staffMiddleware())

	pg.GET("", api.query)
	pg.POST("/submit", api.submit)
	pg.GET("/:id", api.retrieve)
	pg.GET("/:id/approvals", api.approvals)
	pg.POST("/:id/approve", api.approve)
	pg.POST("/:id/return", api.returnToTeacher)
	pg.POST("/:id/forward", api.forward)
	pg.POST("/:id/publish", api.publish, adminMiddleware())
}

func (api *recordApi) submit(ctx echo.Context) error {
	var data record.SubmitPackage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitPackage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pkg, err := api.svc.Submit(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pkg)
}

func (api *recordApi) approve(ctx echo.Context) error {
	return api.review(ctx, record.ActionApprove)
}

func (api *recordApi) returnToTeacher(ctx echo.Context) error {
	return api.review(ctx, record.ActionReturn)
}

func (api *recordApi) review(ctx echo.Context, action record.Action) error {
	var data record.ReviewPackage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewPackage")
	}
	if err := data.Validate(api.validate, action); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var pkg record.QuarterPackage
	if action == record.ActionApprove {
		pkg, err = api.svc.Approve(ctx.Request().Context(), actor, ctx.Param("id"), data)
	} else {
		pkg, err = api.svc.Return(ctx.Request().Context(), actor, ctx.Param("id"), data)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pkg)
}

func (api *recordApi) forward(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pkg, err := api.svc.Forward(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pkg)
}

func (api *recordApi) publish(ctx echo.Context) error {
	var data record.ReviewPackage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewPackage")
	}
	if err := data.Validate(api.validate, record.ActionPublish); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	pkg, err := api.svc.Publish(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pkg)
}

func (api *recordApi) retrieve(ctx echo.Context) error {
	pkg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pkg)
}

func (api *recordApi) approvals(ctx echo.Context) error {
	apprs, err := api.svc.Approvals(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if apprs == nil {
		apprs = []record.Approval{}
	}
	return ctx.JSON(http.StatusOK, apprs)
}

func (api *recordApi) query(ctx echo.Context) error {
	var filter record.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []record.QuarterPackage{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	pkgs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying packages")
	}
	if pkgs == nil {
		pkgs = []record.QuarterPackage{}
	}
	return ctx.JSON(http.StatusOK, pkgs)
}
