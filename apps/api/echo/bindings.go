package echoapi

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// objectIDParam parses the named path param as an ObjectID;
// a malformed id behaves like a missing record.
func objectIDParam(ctx echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ctx.Param(name))
	if err != nil {
		return primitive.NilObjectID, errHttpNotFound
	}
	return id, nil
}

// objectIDQuery parses an optional ObjectID query param; empty yields the
// zero ObjectID and no error.
func objectIDQuery(ctx echo.Context, name string) (primitive.ObjectID, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(val)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(400, name+": invalid id")
	}
	return id, nil
}

func boolQuery(ctx echo.Context, name string) bool {
	val := ctx.QueryParam(name)
	return val == "true" || val == "1"
}
