package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.IsTeacher {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// groupAccessMiddleware guards routes under /groups/:id. Admins pass;
// teachers pass only for groups assigned to them.
func groupAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			gid, err := objectIDParam(ctx, "id")
			if err != nil {
				return err
			}
			if claims.CanAccessGroup(gid) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// objectIDParam parses a hex object id path param; a malformed id reads
// like a missing resource.
func objectIDParam(ctx echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(ctx.Param(name))
	if err != nil {
		return primitive.ObjectID{}, errHttpNotFound
	}
	return id, nil
}
