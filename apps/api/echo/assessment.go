package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/assessment"
	"github.com/darasahq/darasa/core/user"
)

type assessmentApi struct {
	svc    *assessment.Service
	usrSvc *user.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assessment.Service, usrSvc *user.Service) {
	api := assessmentApi{svc: svc, usrSvc: usrSvc}

	pg := g.Group("/assessments")

	// shortlisted applicants submit without an account session
	pg.POST("", api.submit)

	ag := pg.Group("", jwt, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/review", api.review)
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}

	a, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case assessment.ErrExists:
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case application.ErrNotFound:
			return echo.NewHTTPError(http.StatusBadRequest, "application not found")
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assessmentApi) query(ctx echo.Context) error {
	assessments, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if assessments == nil {
		assessments = []assessment.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assessment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) review(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data assessment.ReviewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewAssessment")
	}

	reviewer, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := api.svc.Review(ctx.Request().Context(), reviewer, id, data)
	if err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == assessment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}
