package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/dverror"
	"github.com/mdouchement/devvault/internal/model"
)

// HTTPErrorHandler is a middleware that formats rendered errors.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	switch err := err.(type) {
	case *echo.HTTPError:
		logrus.WithError(err.Internal).Error("echo error")
		_ = c.JSON(err.Code, echo.Map{
			"error": echo.Map{
				"message": err.Message,
			},
		})
	case *dverror.DVError:
		status := dverror.StatusCode(err)
		if status < 500 {
			_ = c.JSON(status, err)
			return
		}
		internal(err, c)
	case *model.ValidationError:
		_ = c.JSON(http.StatusBadRequest, dverror.New(err.Error()))
	default:
		switch {
		case database.IsNotFound(err):
			_ = c.JSON(http.StatusNotFound, dverror.New("No such record."))
		case database.IsUnauthenticated(err):
			_ = c.JSON(http.StatusUnauthorized, dverror.NewWithTagCode(
				http.StatusUnauthorized, "invalid-auth", "Invalid login credentials."))
		default:
			internal(err, c)
		}
	}
}

func internal(err error, c echo.Context) {
	id := uuid.Must(uuid.NewV4()).String()
	logrus.WithError(err).Errorf("internal error (id: %s)", id)

	_ = c.JSON(http.StatusInternalServerError, echo.Map{
		"error": echo.Map{
			"message": fmt.Sprintf("Unexpected error (id: %s)", id),
		},
	})
}
