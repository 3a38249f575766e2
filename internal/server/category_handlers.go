package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdouchement/devvault/internal/database"
	"github.com/mdouchement/devvault/internal/dverror"
)

// category contains all category handlers.
type category struct {
	store database.Store
}

// List returns the caller's explicitly created categories, alphabetical.
func (h *category) List(c echo.Context) error {
	names, err := h.store.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"categories": names,
	})
}

// Create registers a category name. Creating an existing name succeeds
// without a write.
func (h *category) Create(c echo.Context) error {
	var params struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, dverror.New("Could not get category params."))
	}

	name, err := h.store.CreateCategory(c.Request().Context(), params.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"name": name,
	})
}
