package database_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/model"
)

func setup(t *testing.T) (database.Client, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "devvault.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()

	db, err := database.StormOpen(filename)
	require.NoError(t, err)

	return db, func() {
		db.Close()
		os.RemoveAll(filename)
	}
}

func TestStormCreateItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	before := time.Now().UnixMilli()
	item, err := db.CreateItem(context.Background(), model.ItemDraft{
		Type:     model.TypeCommand,
		Category: "Azure",
		Title:    "Deploy",
		Content:  "az webapp up",
		Tags:     []string{"azure", "deploy"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.GreaterOrEqual(t, item.CreatedAt, before)
	assert.LessOrEqual(t, item.CreatedAt, time.Now().UnixMilli())

	items, err := db.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, model.TypeCommand, items[0].Type)
	assert.Equal(t, "Azure", items[0].Category)
	assert.Equal(t, "Deploy", items[0].Title)
	assert.Equal(t, "az webapp up", items[0].Content)
	assert.Equal(t, []string{"azure", "deploy"}, items[0].Tags)
}

func TestStormCreateItemUniqueIDs(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	ids := make(map[string]bool)
	for i := 0; i < 50; i++ {
		item, err := db.CreateItem(context.Background(), model.ItemDraft{
			Type:    model.TypeSnippet,
			Title:   "snippet",
			Content: "body",
		})
		require.NoError(t, err)
		assert.False(t, ids[item.ID], "duplicated id %s", item.ID)
		ids[item.ID] = true
	}
}

func TestStormListItemsNewestFirst(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	first, err := db.CreateItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "one", Content: "1"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := db.CreateItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "two", Content: "2"})
	require.NoError(t, err)

	items, err := db.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestStormUpdateItem(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	item, err := db.CreateItem(context.Background(), model.ItemDraft{
		Type:     model.TypeCommand,
		Category: "Azure",
		Title:    "Deploy",
		Content:  "az webapp up",
	})
	require.NoError(t, err)

	category := "Rust"
	updated, err := db.UpdateItem(context.Background(), item.ID, model.ItemPatch{Category: &category})
	require.NoError(t, err)

	// Stamps never change, the rest of the record is preserved.
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "Rust", updated.Category)
	assert.Equal(t, "Deploy", updated.Title)
	assert.Equal(t, "az webapp up", updated.Content)
}

func TestStormUpdateItemNotFound(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	title := "nope"
	_, err := db.UpdateItem(context.Background(), "missing", model.ItemPatch{Title: &title})
	assert.True(t, database.IsNotFound(err))
}

func TestStormDeleteItemIdempotent(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	item, err := db.CreateItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "one", Content: "1"})
	require.NoError(t, err)

	require.NoError(t, db.DeleteItem(context.Background(), item.ID))
	require.NoError(t, db.DeleteItem(context.Background(), item.ID))

	items, err := db.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestStormListItemsCorruptPayload(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "devvault.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()
	defer os.RemoveAll(filename)

	// Plant a record that cannot decode as an item where item records live.
	sdb, err := storm.Open(filename, database.StormCodec)
	require.NoError(t, err)
	require.NoError(t, sdb.Set("Item", "corrupted", "not an item payload"))
	require.NoError(t, sdb.Close())

	db, err := database.StormOpen(filename)
	require.NoError(t, err)
	defer db.Close()

	// The decode failure surfaces, never an empty collection: a silent
	// reset would destroy the only copy of offline data.
	items, err := db.ListItems(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not list items")
	assert.False(t, database.IsNotFound(err))
	assert.Nil(t, items)
}

func TestStormCategories(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	for _, name := range []string{"Kubernetes", "Azure", "Kubernetes"} {
		created, err := db.CreateCategory(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, name, created)
	}

	names, err := db.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Azure", "Kubernetes"}, names)
}

func TestStormColorOverrides(t *testing.T) {
	db, cleanup := setup(t)
	defer cleanup()

	overrides, err := db.ColorOverrides()
	require.NoError(t, err)
	assert.Empty(t, overrides)

	require.NoError(t, db.SaveColorOverride("kubernetes", "azure"))
	require.NoError(t, db.SaveColorOverride("kubernetes", "docker"))

	overrides, err = db.ColorOverrides()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"kubernetes": "docker"}, overrides)
}
