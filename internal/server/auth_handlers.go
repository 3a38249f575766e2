package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/dverror"
	"github.com/mdouchement/devvault/internal/model"
	"github.com/mdouchement/devvault/internal/server/session"
)

// auth contains all authentication handlers.
type auth struct {
	db       database.Client
	sessions session.Manager
}

type credentialsParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

///// Register
////
//

// Register handler is used to register the user.
func (h *auth) Register(c echo.Context) error {
	var params credentialsParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get user's params."))
	}

	if params.Email == "" {
		return c.JSON(http.StatusBadRequest, dverror.New("No email provided."))
	}
	if params.Password == "" {
		return c.JSON(http.StatusBadRequest, dverror.New("No password provided."))
	}

	// Check if the email is free to use.
	u, err := h.db.FindUserByMail(params.Email)
	if err != nil && !h.db.IsNotFound(err) {
		return errors.Wrap(err, "could not get access to database")
	}
	if u != nil {
		return dverror.NewWithTagCode(http.StatusUnauthorized, "", "This email is already registered.")
	}

	user := &model.User{
		Email: params.Email,
	}
	user.Password, err = argon2.GenerateFromPasswordString(params.Password, argon2.Default)
	if err != nil {
		return errors.Wrap(err, "could not store user password safe")
	}

	if err := h.db.Save(user); err != nil {
		return errors.Wrap(err, "could not persist user")
	}

	return h.grant(c, user)
}

///// Login
////
//

// Login authenticates a user and opens a session.
func (h *auth) Login(c echo.Context) error {
	var params credentialsParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get credentials."))
	}

	if params.Email == "" || params.Password == "" {
		return c.JSON(http.StatusBadRequest, dverror.New("No email or password provided."))
	}

	user, err := h.db.FindUserByMail(params.Email)
	if err != nil {
		if h.db.IsNotFound(err) {
			return dverror.NewWithTagCode(http.StatusUnauthorized, "", "Invalid email or password.")
		}
		return errors.Wrap(err, "could not get user")
	}

	if err = argon2.CompareHashAndPasswordString(user.Password, params.Password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return dverror.NewWithTagCode(http.StatusUnauthorized, "", "Invalid email or password.")
		}
		return errors.Wrap(err, "could not validate password")
	}

	return h.grant(c, user)
}

///// Refresh
////
//

// Refresh regenerates the session's token pair.
func (h *auth) Refresh(c echo.Context) error {
	var params struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get tokens."))
	}

	sess, err := h.db.FindSessionByTokens(params.AccessToken, params.RefreshToken)
	if err != nil {
		if h.db.IsNotFound(err) {
			return dverror.NewWithTagCode(http.StatusUnauthorized, "invalid-auth", "Invalid login credentials.")
		}
		return errors.Wrap(err, "could not get session")
	}

	if err := h.sessions.Regenerate(sess); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, h.renderSession(sess))
}

///// Logout
////
//

// Logout terminates the current session.
func (h *auth) Logout(c echo.Context) error {
	session := currentSession(c)
	if session != nil {
		if err := h.db.Delete(session); err != nil && !h.db.IsNotFound(err) {
			return errors.Wrap(err, "could not delete session")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// grant opens a new session for the user and renders the auth payload.
func (h *auth) grant(c echo.Context, user *model.User) error {
	sess := h.sessions.Generate()
	sess.UserID = user.ID
	sess.UserAgent = c.Request().UserAgent()

	if err := h.db.Save(sess); err != nil {
		return errors.Wrap(err, "could not persist session")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{
			"uuid":  user.ID,
			"email": user.Email,
		},
		"session": h.renderSession(sess),
	})
}

func (h *auth) renderSession(sess *model.Session) echo.Map {
	return echo.Map{
		"access_token":       sess.AccessToken,
		"refresh_token":      sess.RefreshToken,
		"access_expiration":  h.sessions.AccessTokenExpireAt(sess).UTC().UnixMilli(),
		"refresh_expiration": sess.ExpireAt.UTC().UnixMilli(),
	}
}
