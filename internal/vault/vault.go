// Package vault bridges identity state and the persistence facade into a
// filterable in-memory collection of items and categories.
//
// The collection is a cache of persistence results: a mutation is applied
// to it only after the corresponding store call succeeded, so a failure
// leaves the cache exactly as it was.
package vault

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mdouchement/devvault/internal/color"
	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/identity"
	"github.com/mdouchement/devvault/internal/model"
)

// DefaultCategories is the hardcoded part of the category registry.
var DefaultCategories = []string{"General", "Azure", "AWS", "React", "NPM", "Docker", "Git"}

// A Vault is the reactive collection consumed by presentation layers.
type Vault struct {
	store    database.Store
	provider identity.Provider
	colors   *color.Assigner
	logger   logrus.FieldLogger

	// mu also serializes mutations: it is held across the persistence
	// call, so cache updates apply in call order.
	mu         sync.Mutex
	items      []*model.Item
	categories []string
	loaded     bool
	lastErr    error
}

// New returns a vault reading through store, gated by provider.
func New(store database.Store, provider identity.Provider, colors *color.Assigner, logger logrus.FieldLogger) *Vault {
	if colors == nil {
		colors = color.NewAssigner(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Vault{
		store:    store,
		provider: provider,
		colors:   colors,
		logger:   logger,
	}
}

// Run reloads the vault whenever an identity appears, until ctx is done.
// Sign-out does not clear the cache; it only blocks further mutations.
func (v *Vault) Run(ctx context.Context) {
	// Subscribe before sampling: a sign-in landing between the two calls
	// is broadcast to nobody and would never load.
	changes := v.provider.Changes()

	if v.provider.Current() != nil {
		if err := v.Refresh(ctx); err != nil {
			v.logger.WithError(err).Warn("could not load vault")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case id := <-changes:
			if id == nil {
				continue
			}
			if err := v.Refresh(ctx); err != nil {
				v.logger.WithError(err).Warn("could not reload vault")
			}
		}
	}
}

// Refresh loads items and categories through the facade and reconciles
// the category registry: the deduplicated union of the hardcoded
// defaults, the persisted names and the categories referenced by items,
// sorted for a stable display order.
func (v *Vault) Refresh(ctx context.Context) error {
	ctx, err := v.authenticated(ctx)
	if err != nil {
		return v.fail(err)
	}

	items, err := v.store.ListItems(ctx)
	if err != nil {
		return v.fail(err)
	}
	persisted, err := v.store.ListCategories(ctx)
	if err != nil {
		return v.fail(err)
	}

	categories := ReconcileCategories(persisted, items)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = items
	v.categories = categories
	v.loaded = true
	v.lastErr = nil
	return nil
}

// AddItem persists the draft and, on success, prepends the created item
// to the collection and self-registers its category.
func (v *Vault) AddItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	ctx, err := v.authenticated(ctx)
	if err != nil {
		return nil, v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	item, err := v.store.CreateItem(ctx, draft)
	if err != nil {
		v.lastErr = err
		return nil, err
	}

	v.items = append([]*model.Item{item}, v.items...)
	v.registerCategory(item.Category)
	return item, nil
}

// UpdateItem persists the patch and, on success, replaces the cached item
// by id, leaving unrelated items untouched.
func (v *Vault) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	ctx, err := v.authenticated(ctx)
	if err != nil {
		return nil, v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	item, err := v.store.UpdateItem(ctx, id, patch)
	if err != nil {
		v.lastErr = err
		return nil, err
	}

	for i := range v.items {
		if v.items[i].ID == id {
			v.items[i] = item
			break
		}
	}
	v.registerCategory(item.Category)
	return item, nil
}

// DeleteItem removes the item from persistence and, on success, from the
// collection.
func (v *Vault) DeleteItem(ctx context.Context, id string) error {
	ctx, err := v.authenticated(ctx)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store.DeleteItem(ctx, id); err != nil {
		v.lastErr = err
		return err
	}

	items := v.items[:0]
	for _, item := range v.items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	v.items = items
	return nil
}

// AddCategory registers the name and, when a palette key is supplied,
// saves it as the category's color override.
func (v *Vault) AddCategory(ctx context.Context, name, colorKey string) error {
	ctx, err := v.authenticated(ctx)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.store.CreateCategory(ctx, name); err != nil {
		v.lastErr = err
		return err
	}

	// The name is persisted at this point, it belongs in the registry
	// whatever happens to the override below.
	v.registerCategory(name)

	if colorKey != "" {
		if err := v.colors.SaveOverride(name, colorKey); err != nil {
			v.lastErr = err
			return err
		}
	}
	return nil
}

// Theme resolves the visual theme of a category.
func (v *Vault) Theme(category string) (color.Theme, error) {
	return v.colors.ThemeFor(category)
}

// Items returns a snapshot of the unfiltered collection, newest first.
func (v *Vault) Items() []*model.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*model.Item(nil), v.items...)
}

// Categories returns a snapshot of the category registry.
func (v *Vault) Categories() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.categories...)
}

// Filtered returns the items matching f.
func (v *Vault) Filtered(f Filter) []*model.Item {
	return FilterItems(v.Items(), f)
}

// Counts returns the totals over the unfiltered collection.
func (v *Vault) Counts() Counts {
	return CountItems(v.Items())
}

// CategorySummary returns the per-category item counts.
func (v *Vault) CategorySummary() []CategoryCount {
	return SummarizeCategories(v.Categories(), v.Items())
}

// Loaded reports whether a refresh completed since construction.
func (v *Vault) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Err returns the most recent operation failure, nil after a successful
// refresh.
func (v *Vault) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// authenticated rejects the call when nobody is signed in, mirroring the
// remote store's rule even under the local backend, and returns a context
// carrying the identity for the stores.
func (v *Vault) authenticated(ctx context.Context) (context.Context, error) {
	id := v.provider.Current()
	if id == nil {
		return ctx, database.ErrUnauthenticated
	}
	return identity.WithContext(ctx, id), nil
}

// registerCategory appends a name to the registry if absent.
// The registry only grows, there is no delete operation.
func (v *Vault) registerCategory(name string) {
	for _, existing := range v.categories {
		if existing == name {
			return
		}
	}
	v.categories = append(v.categories, name)
}

func (v *Vault) fail(err error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = err
	return err
}
