package database_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/model"
)

// failingStore simulates an unreachable remote backend.
type failingStore struct {
	err   error
	calls int
}

func (s *failingStore) ListItems(context.Context) ([]*model.Item, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) CreateItem(context.Context, model.ItemDraft) (*model.Item, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) UpdateItem(context.Context, string, model.ItemPatch) (*model.Item, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) DeleteItem(context.Context, string) error {
	s.calls++
	return s.err
}

func (s *failingStore) ListCategories(context.Context) ([]string, error) {
	s.calls++
	return nil, s.err
}

func (s *failingStore) CreateCategory(context.Context, string) (string, error) {
	s.calls++
	return "", s.err
}

func (s *failingStore) Close() error { return nil }

func TestFacadeConfigUseRemote(t *testing.T) {
	assert.False(t, database.Config{}.UseRemote())
	assert.False(t, database.Config{RemoteDSN: "vault.db"}.UseRemote())
	assert.False(t, database.Config{RemoteDSN: "placeholder.db", RemoteAccessKey: "key"}.UseRemote())
	assert.False(t, database.Config{RemoteDSN: "vault.db", RemoteAccessKey: "placeholder"}.UseRemote())
	assert.True(t, database.Config{RemoteDSN: "vault.db", RemoteAccessKey: "key"}.UseRemote())
}

func TestFacadeFallbackOnRemoteFailure(t *testing.T) {
	local, cleanup := setup(t)
	defer cleanup()

	remote := &failingStore{err: errors.New("connection refused")}
	facade := database.NewFacade(remote, local, nil)

	// The returned item is indistinguishable from a remote-backed result
	// and lands in the local store.
	item, err := facade.CreateItem(context.Background(), model.ItemDraft{
		Type:    model.TypeCommand,
		Title:   "Deploy",
		Content: "az webapp up",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.NotZero(t, item.CreatedAt)
	assert.Equal(t, 1, remote.calls)

	items, err := local.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	// Fallback is per-call: the next call re-attempts remote first.
	_, err = facade.ListItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, remote.calls)
}

func TestFacadeNoFallbackOnTypedFailures(t *testing.T) {
	local, cleanup := setup(t)
	defer cleanup()

	// An absent identity is a hard stop, not a fallback trigger.
	remote := &failingStore{err: database.ErrUnauthenticated}
	facade := database.NewFacade(remote, local, nil)

	_, err := facade.ListItems(context.Background())
	assert.True(t, database.IsUnauthenticated(err))

	// A remote NotFound could never succeed locally either.
	remote.err = database.ErrNotFound
	title := "t"
	_, err = facade.UpdateItem(context.Background(), "missing", model.ItemPatch{Title: &title})
	assert.True(t, database.IsNotFound(err))
}

func TestFacadeValidationBeforePersistence(t *testing.T) {
	local, cleanup := setup(t)
	defer cleanup()

	remote := &failingStore{err: errors.New("unreachable")}
	facade := database.NewFacade(remote, local, nil)

	_, err := facade.CreateItem(context.Background(), model.ItemDraft{Type: model.TypePrompt})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
	assert.Zero(t, remote.calls, "no backend is reached on validation failure")

	_, err = facade.CreateCategory(context.Background(), "  ")
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, remote.calls)
}

func TestFacadeLocalOnly(t *testing.T) {
	local, cleanup := setup(t)
	defer cleanup()

	facade := database.NewFacade(local, local, nil)
	assert.False(t, facade.Remote())

	item, err := facade.CreateItem(context.Background(), model.ItemDraft{
		Type:     model.TypeSnippet,
		Category: "  ",
		Title:    "Hello",
		Content:  "fmt.Println",
		Tags:     []string{"go", "go", "fmt"},
	})
	require.NoError(t, err)

	// Normalization happens in the facade, whatever the backend.
	assert.Equal(t, model.DefaultCategory, item.Category)
	assert.Equal(t, []string{"go", "fmt"}, item.Tags)
}
