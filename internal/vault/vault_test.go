package vault_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdouchement/devvault/internal/color"
	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/identity"
	"github.com/mdouchement/devvault/internal/model"
	"github.com/mdouchement/devvault/internal/vault"
)

func setup(t *testing.T) (*vault.Vault, *identity.Notifier, func()) {
	t.Helper()

	tmpfile, err := os.CreateTemp("", "devvault.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()

	db, err := database.StormOpen(filename)
	require.NoError(t, err)

	provider := identity.NewNotifier()
	v := vault.New(database.NewFacade(db, db, nil), provider, color.NewAssigner(db), nil)

	return v, provider, func() {
		db.Close()
		os.RemoveAll(filename)
	}
}

func TestVaultRequiresIdentity(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()

	err := v.Refresh(context.Background())
	assert.True(t, database.IsUnauthenticated(err))

	_, err = v.AddItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "t", Content: "c"})
	assert.True(t, database.IsUnauthenticated(err))
	assert.Empty(t, v.Items())

	// Signed in, the same calls go through. Even under the local backend
	// the identity gate holds, for consistency with the remote contract.
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	require.NoError(t, v.Refresh(context.Background()))
	assert.True(t, v.Loaded())
}

func TestVaultRefreshReconcilesCategories(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()
	provider.Set(identity.NewDemo("demo@devvault.lan"))

	require.NoError(t, v.Refresh(context.Background()))
	assert.Equal(t, []string{"AWS", "Azure", "Docker", "General", "Git", "NPM", "React"}, v.Categories())
	assert.NoError(t, v.Err())
}

func TestVaultAddItemSelfRegistersCategory(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	require.NoError(t, v.Refresh(context.Background()))

	item, err := v.AddItem(context.Background(), model.ItemDraft{
		Type:     model.TypeCommand,
		Category: "Kubernetes",
		Title:    "Get pods",
		Content:  "kubectl get pods",
	})
	require.NoError(t, err)

	// The new item is prepended and its ad hoc category registered.
	items := v.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Contains(t, v.Categories(), "Kubernetes")

	summary := v.CategorySummary()
	assert.Equal(t, vault.CategoryCount{Name: "Kubernetes", Count: 1}, summary[0])
}

func TestVaultUpdateItem(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	require.NoError(t, v.Refresh(context.Background()))

	item, err := v.AddItem(context.Background(), model.ItemDraft{
		Type:    model.TypeSnippet,
		Title:   "Hello",
		Content: "fmt.Println",
	})
	require.NoError(t, err)

	other, err := v.AddItem(context.Background(), model.ItemDraft{
		Type:    model.TypeSnippet,
		Title:   "Other",
		Content: "body",
	})
	require.NoError(t, err)

	category := "Rust"
	updated, err := v.UpdateItem(context.Background(), item.ID, model.ItemPatch{Category: &category})
	require.NoError(t, err)

	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, item.CreatedAt, updated.CreatedAt)
	assert.Contains(t, v.Categories(), "Rust")

	// Unrelated cached items keep their identity.
	items := v.Items()
	require.Len(t, items, 2)
	assert.Equal(t, other.ID, items[0].ID)
	assert.Equal(t, "Rust", items[1].Category)
}

func TestVaultDeleteItem(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	require.NoError(t, v.Refresh(context.Background()))

	item, err := v.AddItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, v.DeleteItem(context.Background(), item.ID))
	assert.Empty(t, v.Items())

	// Idempotent, and the registry never shrinks.
	require.NoError(t, v.DeleteItem(context.Background(), item.ID))
	assert.Contains(t, v.Categories(), model.DefaultCategory)
}

func TestVaultRunReloadsOnSignIn(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.Run(ctx)

	assert.False(t, v.Loaded())

	provider.Set(identity.NewDemo("demo@devvault.lan"))
	assert.Eventually(t, v.Loaded, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"AWS", "Azure", "Docker", "General", "Git", "NPM", "React"}, v.Categories())
}

// subscribingProvider signs in while the change subscription is being
// installed, after the broadcast already went to nobody.
type subscribingProvider struct {
	identity *identity.Identity
	changes  chan *identity.Identity
}

func (p *subscribingProvider) Current() *identity.Identity {
	return p.identity
}

func (p *subscribingProvider) Changes() <-chan *identity.Identity {
	if p.identity == nil {
		p.identity = identity.NewDemo("demo@devvault.lan")
	}
	return p.changes
}

func TestVaultRunCatchesSignInDuringSubscription(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "devvault.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()
	defer os.RemoveAll(filename)

	db, err := database.StormOpen(filename)
	require.NoError(t, err)
	defer db.Close()

	provider := &subscribingProvider{changes: make(chan *identity.Identity)}
	v := vault.New(database.NewFacade(db, db, nil), provider, nil, nil)

	// The channel never yields, so the load must come from re-checking the
	// current identity after subscribing.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	v.Run(ctx)

	assert.True(t, v.Loaded())
}

func TestVaultAddCategoryWithColor(t *testing.T) {
	v, provider, cleanup := setup(t)
	defer cleanup()
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	require.NoError(t, v.Refresh(context.Background()))

	require.NoError(t, v.AddCategory(context.Background(), "Kubernetes", "secrets"))
	assert.Contains(t, v.Categories(), "Kubernetes")

	theme, err := v.Theme("kubernetes")
	require.NoError(t, err)
	assert.Equal(t, color.Themes["secrets"], theme)

	// Adding it again is harmless and does not duplicate the entry.
	require.NoError(t, v.AddCategory(context.Background(), "Kubernetes", ""))
	count := 0
	for _, name := range v.Categories() {
		if name == "Kubernetes" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// failingOverrides rejects every save, to observe AddCategory behavior
// when the override write fails after the category write succeeded.
type failingOverrides struct{}

func (failingOverrides) ColorOverrides() (map[string]string, error) {
	return map[string]string{}, nil
}

func (failingOverrides) SaveColorOverride(string, string) error {
	return errors.New("disk full")
}

func TestVaultAddCategoryRegistersBeforeOverrideSave(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "devvault.*.db")
	require.NoError(t, err)
	filename := tmpfile.Name()
	tmpfile.Close()
	defer os.RemoveAll(filename)

	db, err := database.StormOpen(filename)
	require.NoError(t, err)
	defer db.Close()

	provider := identity.NewNotifier()
	provider.Set(identity.NewDemo("demo@devvault.lan"))
	v := vault.New(database.NewFacade(db, db, nil), provider, color.NewAssigner(failingOverrides{}), nil)
	require.NoError(t, v.Refresh(context.Background()))

	// The category is persisted even though the override save fails, so
	// the registry must reflect it without waiting for the next refresh.
	err = v.AddCategory(context.Background(), "Kubernetes", "secrets")
	require.Error(t, err)
	assert.Contains(t, v.Categories(), "Kubernetes")

	names, err := db.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes"}, names)
}

// brokenStore fails every operation, to observe cache behavior on failure.
type brokenStore struct{}

var errBroken = errors.New("backend exploded")

func (brokenStore) ListItems(context.Context) ([]*model.Item, error) { return nil, errBroken }
func (brokenStore) CreateItem(context.Context, model.ItemDraft) (*model.Item, error) {
	return nil, errBroken
}
func (brokenStore) UpdateItem(context.Context, string, model.ItemPatch) (*model.Item, error) {
	return nil, errBroken
}
func (brokenStore) DeleteItem(context.Context, string) error         { return errBroken }
func (brokenStore) ListCategories(context.Context) ([]string, error) { return nil, errBroken }
func (brokenStore) CreateCategory(context.Context, string) (string, error) {
	return "", errBroken
}
func (brokenStore) Close() error { return nil }

func TestVaultFailureLeavesCacheUntouched(t *testing.T) {
	provider := identity.NewNotifier()
	provider.Set(identity.NewDemo("demo@devvault.lan"))

	v := vault.New(database.NewFacade(brokenStore{}, brokenStore{}, nil), provider, nil, nil)

	_, err := v.AddItem(context.Background(), model.ItemDraft{Type: model.TypePrompt, Title: "t", Content: "c"})
	require.Error(t, err)
	assert.Empty(t, v.Items())
	assert.Empty(t, v.Categories())

	// The failure is recorded as the most recent error state.
	assert.Equal(t, errBroken, errors.Cause(v.Err()))
}
