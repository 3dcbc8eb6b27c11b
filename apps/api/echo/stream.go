package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/stream"
	"github.com/darasahq/darasa/core/user"
)

type streamApi struct {
	svc    *stream.Service
	usrSvc *user.Service
}

func registerStreamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *stream.Service, usrSvc *user.Service) {
	api := streamApi{svc: svc, usrSvc: usrSvc}

	sg := g.Group("/streams", jwt)
	sg.POST("", api.create, staffMiddleware())
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, staffMiddleware())
	sg.DELETE("/:id", api.destroy, staffMiddleware())
}

func (api *streamApi) create(ctx echo.Context) error {
	var data stream.NewStream
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStream")
	}

	creator, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Create(ctx.Request().Context(), creator, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *streamApi) query(ctx echo.Context) error {
	cohortID, err := objectIDQuery(ctx, "cohort_id")
	if err != nil {
		return err
	}
	filter := stream.QueryFilter{
		CohortID: cohortID,
		TrackID:  ctx.QueryParam("track_id"),
	}

	viewer, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	streams, err := api.svc.Filter(ctx.Request().Context(), viewer, filter)
	if err != nil {
		return errors.Wrap(err, "querying streams")
	}
	if streams == nil {
		streams = []stream.Stream{}
	}
	return ctx.JSON(http.StatusOK, streams)
}

func (api *streamApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == stream.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding stream by ID")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *streamApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data stream.UpdateStream
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStream")
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Update(ctx.Request().Context(), actor, id, data)
	if err != nil {
		if errors.Cause(err) == stream.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *streamApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), actor, id); err != nil {
		if errors.Cause(err) == stream.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
