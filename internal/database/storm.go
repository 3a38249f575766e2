package database

import (
	"context"
	"sort"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"

	"github.com/mdouchement/devvault/internal/model"
)

// Fixed storage keys of the local medium.
const (
	kvBucket         = "devvault"
	kvColorOverrides = "color_overrides"
)

// A categoryRecord is a local registry entry for an explicitly created
// category. The name is the primary key so creation is idempotent.
type categoryRecord struct {
	Name string `msgpack:"name" storm:"id"`
}

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range []any{&model.Item{}, &categoryRecord{}, &model.User{}, &model.Session{}} {
		if err := db.Init(m); err != nil {
			return errors.Wrap(err, "could not init index")
		}
	}
	return nil
}

// StormReIndex reindex Storm database.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	for _, m := range []any{&model.Item{}, &categoryRecord{}, &model.User{}, &model.Session{}} {
		if err := db.ReIndex(m); err != nil {
			return errors.Wrap(err, "could not reindex")
		}
	}
	return nil
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *strm) IsNotFound(err error) bool {
	cause := errors.Cause(err)
	return cause == storm.ErrNotFound || cause == ErrNotFound
}

// ListItems returns all stored items, newest first.
//
// The identity carried by ctx is ignored: the local medium belongs to the
// device, not to an account.
func (c *strm) ListItems(_ context.Context) ([]*model.Item, error) {
	items := make([]*model.Item, 0)
	err := c.db.Select().OrderBy("CreatedAt").Reverse().Find(&items)
	if err != nil && err != storm.ErrNotFound {
		// Includes codec failures on corrupt payloads. No silent reset.
		return nil, errors.Wrap(err, "could not list items")
	}
	return items, nil
}

// CreateItem stamps and persists the draft, returning the full item.
func (c *strm) CreateItem(_ context.Context, draft model.ItemDraft) (*model.Item, error) {
	item := &model.Item{
		ID:          uuid.Must(uuid.NewV4()).String(),
		Type:        draft.Type,
		Category:    draft.Category,
		Title:       draft.Title,
		Content:     draft.Content,
		Description: draft.Description,
		Tags:        draft.Tags,
		Deprecated:  draft.Deprecated,
		CreatedAt:   time.Now().UnixMilli(),
	}

	if err := c.db.Save(item); err != nil {
		return nil, errors.Wrap(err, "could not save item")
	}
	return item, nil
}

// UpdateItem merges the patch over the stored record.
func (c *strm) UpdateItem(_ context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	var item model.Item
	if err := c.db.One("ID", id, &item); err != nil {
		if err == storm.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "could not find item")
	}

	patch.Apply(&item)

	if err := c.db.Save(&item); err != nil {
		return nil, errors.Wrap(err, "could not save item")
	}
	return &item, nil
}

// DeleteItem removes the item with the given id. Idempotent.
func (c *strm) DeleteItem(_ context.Context, id string) error {
	err := c.db.Select(q.Eq("ID", id)).Delete(&model.Item{})
	if err != nil && err != storm.ErrNotFound {
		return errors.Wrap(err, "could not delete item")
	}
	return nil
}

// ListCategories returns the explicitly created category names,
// alphabetically sorted.
func (c *strm) ListCategories(_ context.Context) ([]string, error) {
	records := make([]*categoryRecord, 0)
	if err := c.db.All(&records); err != nil && err != storm.ErrNotFound {
		return nil, errors.Wrap(err, "could not list categories")
	}

	names := make([]string, 0, len(records))
	for _, record := range records {
		names = append(names, record.Name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateCategory registers the name. Saving twice overwrites the same key
// so the operation is idempotent.
func (c *strm) CreateCategory(_ context.Context, name string) (string, error) {
	if err := c.db.Save(&categoryRecord{Name: name}); err != nil {
		return "", errors.Wrap(err, "could not save category")
	}
	return name, nil
}

// ColorOverrides returns the saved normalized-name to palette-key table.
func (c *strm) ColorOverrides() (map[string]string, error) {
	overrides := make(map[string]string)
	err := c.db.Get(kvBucket, kvColorOverrides, &overrides)
	if err != nil && err != storm.ErrNotFound {
		return nil, errors.Wrap(err, "could not load color overrides")
	}
	return overrides, nil
}

// SaveColorOverride inserts or replaces an override.
func (c *strm) SaveColorOverride(name, colorKey string) error {
	overrides, err := c.ColorOverrides()
	if err != nil {
		return err
	}
	overrides[name] = colorKey
	return errors.Wrap(c.db.Set(kvBucket, kvColorOverrides, overrides), "could not save color overrides")
}

// Save inserts or updates the entry in database with the given record.
func (c *strm) Save(m model.Record) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(c.db.Save(m), "could not save the record")
}

// Delete deletes the entry in database with the given record.
func (c *strm) Delete(m model.Record) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the record")
}

// FindUser returns the user for the given id (UUID).
func (c *strm) FindUser(id string) (*model.User, error) {
	var user model.User
	if err := c.db.One("ID", id, &user); err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// FindUserByMail returns the user for the given email.
func (c *strm) FindUserByMail(email string) (*model.User, error) {
	var user model.User
	if err := c.db.One("Email", email, &user); err != nil {
		return nil, errors.Wrap(err, "find user by mail")
	}
	return &user, nil
}

// FindSessionByAccessToken returns the session for the given access token.
func (c *strm) FindSessionByAccessToken(token string) (*model.Session, error) {
	var session model.Session
	if err := c.db.One("AccessToken", token, &session); err != nil {
		return nil, errors.Wrap(err, "find session by access token")
	}
	return &session, nil
}

// FindSessionByTokens returns the session for the given access and refresh token.
func (c *strm) FindSessionByTokens(access, refresh string) (*model.Session, error) {
	var session model.Session
	err := c.db.Select(q.Eq("AccessToken", access), q.Eq("RefreshToken", refresh)).First(&session)
	if err != nil {
		return nil, errors.Wrap(err, "find session by tokens")
	}
	return &session, nil
}
