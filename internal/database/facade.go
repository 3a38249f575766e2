package database

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mdouchement/devvault/internal/model"
)

// A Config carries the remote connection parameters. Remote is selected
// only when the DSN is present and not a placeholder; the decision is made
// once at construction and is not re-evaluated mid-session.
type Config struct {
	RemoteDSN       string
	RemoteAccessKey string
}

// UseRemote reports whether the configuration designates a usable remote
// backend. Both parameters must be present and non-placeholder.
func (c Config) UseRemote() bool {
	for _, value := range []string{c.RemoteDSN, c.RemoteAccessKey} {
		if value == "" || strings.Contains(value, "placeholder") {
			return false
		}
	}
	return true
}

// A Facade presents one persistence interface regardless of backend.
//
// When remote is the active backend, any backend failure on a call is
// retried once against the local store, transparently to the caller.
// Typed failures (ErrNotFound, ErrUnauthenticated, validation) are the
// caller's problem and never trigger fallback. A local failure propagates:
// there is no backend beneath it.
type Facade struct {
	active Store
	local  Store
	logger logrus.FieldLogger
}

// NewFacade returns a facade dispatching to active, with local as the
// fallback target. When active is the local store itself, pass it twice.
func NewFacade(active, local Store, logger logrus.FieldLogger) *Facade {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Facade{
		active: active,
		local:  local,
		logger: logger,
	}
}

// Remote reports whether the facade dispatches to a distinct remote
// backend first.
func (f *Facade) Remote() bool {
	return f.active != f.local
}

// Close closes both backends.
func (f *Facade) Close() error {
	if f.Remote() {
		if err := f.active.Close(); err != nil {
			f.logger.WithError(err).Warn("could not close remote store")
		}
	}
	return f.local.Close()
}

// fallback reports whether err warrants retrying against the local store.
func (f *Facade) fallback(err error) bool {
	if err == nil || !f.Remote() {
		return false
	}
	return !IsNotFound(err) && !IsUnauthenticated(err)
}

// ListItems implements Store.
func (f *Facade) ListItems(ctx context.Context) ([]*model.Item, error) {
	items, err := f.active.ListItems(ctx)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote list items failed, falling back to local store")
		return f.local.ListItems(ctx)
	}
	return items, err
}

// CreateItem implements Store. The draft is validated and normalized here,
// before any backend is involved.
func (f *Facade) CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	item, err := f.active.CreateItem(ctx, draft)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote create item failed, falling back to local store")
		return f.local.CreateItem(ctx, draft)
	}
	return item, err
}

// UpdateItem implements Store.
func (f *Facade) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	item, err := f.active.UpdateItem(ctx, id, patch)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote update item failed, falling back to local store")
		return f.local.UpdateItem(ctx, id, patch)
	}
	return item, err
}

// DeleteItem implements Store.
func (f *Facade) DeleteItem(ctx context.Context, id string) error {
	err := f.active.DeleteItem(ctx, id)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote delete item failed, falling back to local store")
		return f.local.DeleteItem(ctx, id)
	}
	return err
}

// ListCategories implements Store.
func (f *Facade) ListCategories(ctx context.Context) ([]string, error) {
	names, err := f.active.ListCategories(ctx)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote list categories failed, falling back to local store")
		return f.local.ListCategories(ctx)
	}
	return names, err
}

// CreateCategory implements Store.
func (f *Facade) CreateCategory(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", &model.ValidationError{Field: "name", Reason: "required"}
	}

	created, err := f.active.CreateCategory(ctx, name)
	if f.fallback(err) {
		f.logger.WithError(err).Warn("remote create category failed, falling back to local store")
		return f.local.CreateCategory(ctx, name)
	}
	return created, err
}
