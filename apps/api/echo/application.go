package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/cohort"
	"github.com/darasahq/darasa/core/user"
)

type applicationApi struct {
	svc    *application.Service
	usrSvc *user.Service
}

func registerApplicationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *application.Service, usrSvc *user.Service) {
	api := applicationApi{svc: svc, usrSvc: usrSvc}

	pg := g.Group("/applications")

	// public intake endpoint
	pg.POST("", api.submit)

	ag := pg.Group("", jwt, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id/review", api.review)
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *applicationApi) submit(ctx echo.Context) error {
	var data application.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}

	app, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case application.ErrExists:
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case cohort.ErrNoActive, cohort.ErrNotFound:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *applicationApi) query(ctx echo.Context) error {
	cohortID, err := objectIDQuery(ctx, "cohort_id")
	if err != nil {
		return err
	}
	filter := application.QueryFilter{
		CohortID: cohortID,
		TrackID:  ctx.QueryParam("track_id"),
		Status:   ctx.QueryParam("status"),
	}

	apps, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []application.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *applicationApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	app, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding application by ID")
	}
	return ctx.JSON(http.StatusOK, app)
}

// review advances the application along its status graph; acceptance
// promotes the applicant and fills a seat atomically.
func (api *applicationApi) review(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data application.ReviewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewApplication")
	}

	reviewer, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Review(ctx.Request().Context(), reviewer, id, data)
	if err != nil {
		switch errors.Cause(err) {
		case application.ErrNotFound:
			return errHttpNotFound
		case cohort.ErrTrackFull:
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *applicationApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == application.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting application")
	}
	return ctx.NoContent(http.StatusNoContent)
}
