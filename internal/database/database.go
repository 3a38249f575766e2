// Package database implements the persistence layer of DevVault: a local
// storm/bbolt store, a remote relational store and the facade that picks
// between them with per-call fallback.
package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mdouchement/devvault/internal/model"
)

var (
	// ErrNotFound is returned when an operation targets a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrUnauthenticated is returned by identity-scoped stores when no
	// identity is present. It is a hard stop, never a fallback trigger.
	ErrUnauthenticated = errors.New("no authenticated identity")
)

// IsNotFound returns true if err is a not found error.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsUnauthenticated returns true if err is an unauthenticated error.
func IsUnauthenticated(err error) bool {
	return errors.Cause(err) == ErrUnauthenticated
}

type (
	// A Store is the capability contract shared by both persistence
	// backends. Callers cannot distinguish the backend from results alone.
	Store interface {
		// ListItems returns all reachable items, newest first.
		ListItems(ctx context.Context) ([]*model.Item, error)
		// CreateItem persists the draft, assigning id and creation stamp.
		CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error)
		// UpdateItem merges the patch over the item with the given id.
		// It returns ErrNotFound when no such item exists.
		UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)
		// DeleteItem removes the item with the given id.
		// A missing id is not an error.
		DeleteItem(ctx context.Context, id string) error
		// ListCategories returns the explicitly created category names,
		// alphabetically sorted.
		ListCategories(ctx context.Context) ([]string, error)
		// CreateCategory registers the name if not already present and
		// returns it either way.
		CreateCategory(ctx context.Context, name string) (string, error)
		// Close the store.
		Close() error
	}

	// A Client is the full local database handle. On top of the Store
	// contract it persists users, sessions and category color overrides.
	Client interface {
		Store

		// Save inserts or updates the entry in database with the given record.
		Save(m model.Record) error
		// Delete deletes the entry in database with the given record.
		Delete(m model.Record) error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool

		UserInteraction
		SessionInteraction
		ColorInteraction
	}

	// An UserInteraction defines all the methods used to interact with a user record.
	UserInteraction interface {
		// FindUser returns the user for the given id (UUID).
		FindUser(id string) (*model.User, error)
		// FindUserByMail returns the user for the given email.
		FindUserByMail(email string) (*model.User, error)
	}

	// A SessionInteraction defines all the methods used to interact with a session record.
	SessionInteraction interface {
		// FindSessionByAccessToken returns the session for the given access token.
		FindSessionByAccessToken(token string) (*model.Session, error)
		// FindSessionByTokens returns the session for the given access and refresh token.
		FindSessionByTokens(access, refresh string) (*model.Session, error)
	}

	// A ColorInteraction persists per-device category color overrides,
	// keyed by normalized category name.
	ColorInteraction interface {
		// ColorOverrides returns the saved normalized-name to palette-key table.
		ColorOverrides() (map[string]string, error)
		// SaveColorOverride inserts or replaces an override.
		SaveColorOverride(name, colorKey string) error
	}
)
