package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mdouchement/devvault/internal/identity"
	"github.com/mdouchement/devvault/internal/model"
)

const remoteSchema = `
CREATE TABLE IF NOT EXISTS items (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	type        TEXT NOT NULL,
	category    TEXT NOT NULL,
	title       TEXT NOT NULL,
	content     TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	deprecated  INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_owner_created ON items(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS categories (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(owner_id, name)
);
`

// remote is the relational backend. Every operation is scoped to the
// identity carried by the context; its absence is a hard failure.
type remote struct {
	db *sql.DB
}

// RemoteOpen connects to the relational medium designated by dsn and
// ensures the schema exists.
func RemoteOpen(dsn string) (Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not open remote database")
	}

	if _, err := db.Exec(remoteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not init remote schema")
	}

	return &remote{db: db}, nil
}

// Close the store.
func (c *remote) Close() error {
	return c.db.Close()
}

func (c *remote) owner(ctx context.Context) (string, error) {
	id := identity.FromContext(ctx)
	if id == nil {
		return "", ErrUnauthenticated
	}
	return id.ID, nil
}

// ListItems fetches the rows owned by the current identity, ordered by
// creation time descending. The ordering is part of the wire contract.
func (c *remote) ListItems(ctx context.Context) ([]*model.Item, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, owner_id, type, category, title, content, description, tags, deprecated, created_at
		FROM items WHERE owner_id = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, errors.Wrap(err, "could not query items")
	}
	defer rows.Close()

	items := make([]*model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, errors.Wrap(rows.Err(), "could not iterate items")
}

// CreateItem inserts a row tagged with the caller's identity. The server
// side assigns id and creation timestamp.
func (c *remote) CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		ID:          uuid.Must(uuid.NewV4()).String(),
		OwnerID:     owner,
		Type:        draft.Type,
		Category:    draft.Category,
		Title:       draft.Title,
		Content:     draft.Content,
		Description: draft.Description,
		Tags:        draft.Tags,
		Deprecated:  draft.Deprecated,
		CreatedAt:   time.Now().UnixMilli(),
	}

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode tags")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO items (id, owner_id, type, category, title, content, description, tags, deprecated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, string(item.Type), item.Category, item.Title,
		item.Content, item.Description, string(tags), item.Deprecated, item.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "could not insert item")
	}
	return item, nil
}

// UpdateItem merges the patch over the owned row with the given id.
func (c *remote) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}

	row := c.db.QueryRowContext(ctx, `
		SELECT id, owner_id, type, category, title, content, description, tags, deprecated, created_at
		FROM items WHERE id = ? AND owner_id = ?`, id, owner)

	item, err := scanItem(row)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	patch.Apply(item)

	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode tags")
	}

	_, err = c.db.ExecContext(ctx, `
		UPDATE items SET type = ?, category = ?, title = ?, content = ?, description = ?, tags = ?, deprecated = ?
		WHERE id = ? AND owner_id = ?`,
		string(item.Type), item.Category, item.Title, item.Content,
		item.Description, string(tags), item.Deprecated, id, owner)
	if err != nil {
		return nil, errors.Wrap(err, "could not update item")
	}
	return item, nil
}

// DeleteItem deletes the owned row with the given id. Zero rows affected
// is not an error.
func (c *remote) DeleteItem(ctx context.Context, id string) error {
	owner, err := c.owner(ctx)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND owner_id = ?`, id, owner)
	return errors.Wrap(err, "could not delete item")
}

// ListCategories fetches the category names for the identity, alphabetical.
func (c *remote) ListCategories(ctx context.Context) ([]string, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT name FROM categories WHERE owner_id = ? ORDER BY name ASC`, owner)
	if err != nil {
		return nil, errors.Wrap(err, "could not query categories")
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "could not scan category")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "could not iterate categories")
}

// CreateCategory checks existence by exact name first to avoid duplicate
// rows, then inserts tagged with the identity.
func (c *remote) CreateCategory(ctx context.Context, name string) (string, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return "", err
	}

	var existing string
	err = c.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE owner_id = ? AND name = ?`, owner, name).Scan(&existing)
	switch {
	case err == nil:
		return name, nil
	case err != sql.ErrNoRows:
		return "", errors.Wrap(err, "could not check category existence")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO categories (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)`,
		uuid.Must(uuid.NewV4()).String(), owner, name, time.Now().UnixMilli())
	if err != nil {
		return "", errors.Wrap(err, "could not insert category")
	}
	return name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		item model.Item
		tags string
	)
	err := row.Scan(&item.ID, &item.OwnerID, &item.Type, &item.Category, &item.Title,
		&item.Content, &item.Description, &tags, &item.Deprecated, &item.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "could not scan item")
	}

	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, errors.Wrap(err, "could not decode tags")
	}
	return &item, nil
}
