package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/dverror"
	"github.com/mdouchement/devvault/internal/model"
	"github.com/mdouchement/devvault/internal/vault"
)

// item contains all item handlers.
type item struct {
	store database.Store
}

///// List
////
//

// List returns the caller's items, newest first. The optional category,
// view and q query parameters narrow the list server-side with the same
// semantics as the vault views.
func (h *item) List(c echo.Context) error {
	items, err := h.store.ListItems(c.Request().Context())
	if err != nil {
		return err
	}

	filter := vault.Filter{
		Category: c.QueryParam("category"),
		View:     vault.View(c.QueryParam("view")),
		Query:    c.QueryParam("q"),
	}

	return c.JSON(http.StatusOK, echo.Map{
		"items": vault.FilterItems(items, filter),
	})
}

///// Create
////
//

// Create persists a new item owned by the caller.
func (h *item) Create(c echo.Context) error {
	var draft model.ItemDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get item params."))
	}

	created, err := h.store.CreateItem(c.Request().Context(), draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

///// Update
////
//

// Update merges a partial payload over the item.
func (h *item) Update(c echo.Context) error {
	var patch model.ItemPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get item params."))
	}

	updated, err := h.store.UpdateItem(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

///// Delete
////
//

// Delete removes the item. Deleting a missing item succeeds.
func (h *item) Delete(c echo.Context) error {
	if err := h.store.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

///// Summary
////
//

// Summary returns the per-type counts and the category summary computed
// over the caller's unfiltered collection.
func (h *item) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.store.ListItems(ctx)
	if err != nil {
		return err
	}
	persisted, err := h.store.ListCategories(ctx)
	if err != nil {
		return err
	}

	categories := vault.ReconcileCategories(persisted, items)
	return c.JSON(http.StatusOK, echo.Map{
		"counts":     vault.CountItems(items),
		"categories": vault.SummarizeCategories(categories, items),
	})
}
