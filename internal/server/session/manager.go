// Package session manages DB-backed opaque access/refresh tokens.
package session

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/dverror"
	"github.com/mdouchement/devvault/internal/model"
)

type (
	// A Manager manages sessions.
	Manager interface {
		// Generate creates a new session without user information.
		Generate() *model.Session
		// Validate validates an access token and returns its session.
		Validate(token string) (*model.Session, error)
		// AccessTokenExpireAt returns the expiration date of the access token.
		AccessTokenExpireAt(session *model.Session) time.Time
		// Regenerate regenerates the session's tokens.
		Regenerate(session *model.Session) error
		// UserFromSession returns the user owning the session.
		UserFromSession(session *model.Session) (*model.User, error)
	}

	manager struct {
		db                         database.Client
		accessTokenExpirationTime  time.Duration
		refreshTokenExpirationTime time.Duration
	}
)

// NewManager returns a new manager.
func NewManager(db database.Client, accessTokenExpirationTime, refreshTokenExpirationTime time.Duration) Manager {
	return &manager{
		db:                         db,
		accessTokenExpirationTime:  accessTokenExpirationTime,
		refreshTokenExpirationTime: refreshTokenExpirationTime,
	}
}

func (m *manager) Generate() *model.Session {
	return &model.Session{
		ExpireAt:     time.Now().Add(m.refreshTokenExpirationTime).UTC(),
		AccessToken:  SecureToken(24),
		RefreshToken: SecureToken(24),
	}
}

func (m *manager) Validate(token string) (*model.Session, error) {
	session, err := m.db.FindSessionByAccessToken(token)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, dverror.NewWithTagCode(
				http.StatusUnauthorized,
				"invalid-auth",
				"Invalid login credentials.",
			)
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	if m.isSessionExpired(session) {
		return nil, dverror.NewWithTagCode(http.StatusUnauthorized, "invalid-auth", "Invalid login credentials.")
	}

	if m.isAccessTokenExpired(session) {
		return nil, dverror.NewWithTagCode(http.StatusUnauthorized, "expired-access-token", "The provided access token has expired.")
	}

	return session, nil
}

func (m *manager) AccessTokenExpireAt(session *model.Session) time.Time {
	return session.ExpireAt.Add(-m.refreshTokenExpirationTime).Add(m.accessTokenExpirationTime)
}

func (m *manager) Regenerate(session *model.Session) error {
	if m.isSessionExpired(session) {
		return dverror.NewWithTagCode(
			http.StatusBadRequest,
			"expired-refresh-token",
			"The refresh token has expired.",
		)
	}

	session.AccessToken = SecureToken(24)
	session.RefreshToken = SecureToken(24)
	session.ExpireAt = time.Now().Add(m.refreshTokenExpirationTime)

	return errors.Wrap(m.db.Save(session), "could not save session after refreshing session")
}

func (m *manager) UserFromSession(session *model.Session) (*model.User, error) {
	user, err := m.db.FindUser(session.UserID)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, dverror.NewWithTagCode(http.StatusUnauthorized, "invalid-auth", "Invalid login credentials.")
		}
		return nil, errors.Wrap(err, "could not get user from session")
	}
	return user, nil
}

// isSessionExpired checks the refresh token expiration.
func (m *manager) isSessionExpired(session *model.Session) bool {
	return session.ExpireAt.Before(time.Now())
}

func (m *manager) isAccessTokenExpired(session *model.Session) bool {
	return m.AccessTokenExpireAt(session).Before(time.Now())
}
