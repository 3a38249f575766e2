package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mdouchement/devvault/internal/identity"
	"github.com/mdouchement/devvault/internal/server/session"
)

const (
	// CurrentUserContextKey is the key to retrieve the current_user from echo.Context.
	CurrentUserContextKey = "current_user"
	// CurrentSessionContextKey is the key to retrieve the current_session from echo.Context.
	CurrentSessionContextKey = "current_session"
)

// Session returns a session auth middleware.
//
// It resolves the bearer access token to a database session and its user,
// stores both in echo.Context, and injects the identity into the request
// context so the stores can scope their rows.
func Session(m session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			authorization := c.Request().Header.Get(echo.HeaderAuthorization)
			token := token(authorization)

			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": echo.Map{
						"tag":     "invalid-auth",
						"message": "Invalid login credentials.",
					},
				})
			}

			sess, err := m.Validate(token)
			if err != nil {
				return err
			}
			c.Set(CurrentSessionContextKey, sess)

			user, err := m.UserFromSession(sess)
			if err != nil {
				return err
			}
			c.Set(CurrentUserContextKey, user)

			ctx := identity.WithContext(c.Request().Context(), &identity.Identity{
				ID:    user.ID,
				Email: user.Email,
			})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
