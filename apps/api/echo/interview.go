package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/application"
	"github.com/darasahq/darasa/core/interview"
)

type interviewApi struct {
	svc *interview.Service
}

func registerInterviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *interview.Service) {
	api := interviewApi{svc: svc}

	ig := g.Group("/interviews")

	// applicants browse open slots and book one for their application
	ig.GET("/slots", api.querySlots)
	ig.POST("", api.schedule)

	ag := ig.Group("", jwt, staffMiddleware())
	ag.POST("/slots", api.createSlot)
	ag.DELETE("/slots/:id", api.deactivateSlot)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
}

func (api *interviewApi) createSlot(ctx echo.Context) error {
	var data interview.NewInterviewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInterviewSlot")
	}

	slot, err := api.svc.CreateSlot(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *interviewApi) querySlots(ctx echo.Context) error {
	onlyAvailable := boolQuery(ctx, "available")
	slots, err := api.svc.QuerySlots(ctx.Request().Context(), onlyAvailable)
	if err != nil {
		return errors.Wrap(err, "querying interview slots")
	}
	if slots == nil {
		slots = []interview.InterviewSlot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *interviewApi) deactivateSlot(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeactivateSlot(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == interview.ErrSlotNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deactivating interview slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// schedule books a seat in the slot; the seat counter and the interview
// record move together, so a full slot can never be double-booked.
func (api *interviewApi) schedule(ctx echo.Context) error {
	var data interview.NewInterview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInterview")
	}

	iv, err := api.svc.Schedule(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case interview.ErrExists, interview.ErrSlotFull:
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case interview.ErrSlotNotFound:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case application.ErrNotFound:
			return echo.NewHTTPError(http.StatusBadRequest, "application not found")
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, iv)
}

func (api *interviewApi) query(ctx echo.Context) error {
	interviews, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("status"))
	if err != nil {
		return errors.Wrap(err, "querying interviews")
	}
	if interviews == nil {
		interviews = []interview.Interview{}
	}
	return ctx.JSON(http.StatusOK, interviews)
}

func (api *interviewApi) retrieve(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}
	iv, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == interview.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding interview by ID")
	}
	return ctx.JSON(http.StatusOK, iv)
}

func (api *interviewApi) update(ctx echo.Context) error {
	id, err := objectIDParam(ctx, "id")
	if err != nil {
		return err
	}

	var data interview.UpdateInterview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInterview")
	}

	iv, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		if errors.Cause(err) == interview.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, iv)
}
