package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/track"
)

type trackApi struct {
	svc *track.Service
}

func registerTrackAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *track.Service) {
	api := trackApi{svc: svc}

	tg := g.Group("/tracks")

	// the catalogue is public; applicants browse it before applying
	tg.GET("", api.query)

	ag := tg.Group("", jwt)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *trackApi) create(ctx echo.Context) error {
	var data track.NewTrack
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTrack")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	trk, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == track.ErrExists {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return errors.Wrap(err, "creating track")
	}
	return ctx.JSON(http.StatusCreated, trk)
}

func (api *trackApi) query(ctx echo.Context) error {
	tracks, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tracks")
	}
	if tracks == nil {
		tracks = []track.Track{}
	}
	return ctx.JSON(http.StatusOK, tracks)
}

func (api *trackApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	trk, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == track.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding track by ID")
	}
	return ctx.JSON(http.StatusOK, trk)
}

func (api *trackApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data track.UpdateTrack
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTrack")
	}

	trk, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == track.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating track")
	}
	return ctx.JSON(http.StatusOK, trk)
}

func (api *trackApi) destroy(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == track.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting track")
	}
	return ctx.NoContent(http.StatusNoContent)
}
