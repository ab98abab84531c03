package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/apierror"
	"github.com/mdouchement/itemd/internal/model"
	"github.com/mdouchement/itemd/internal/server/serializer"
)

// item contains all item handlers.
type item struct{}

// ItemParams are the writable fields of an item.
// An absent, null or zero quantity is stored as 0.
// Name and description must be JSON strings.
type ItemParams struct {
	Name        string `json:"name"        validate:"required"`
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity"`
}

func bindItemParams(c echo.Context) (*ItemParams, error) {
	var params ItemParams
	if err := c.Bind(&params); err != nil {
		return nil, err
	}

	if err := c.Validate(&params); err != nil {
		return nil, apierror.Validation("Name and description are required")
	}

	return &params, nil
}

func itemID(c echo.Context) (string, error) {
	id, err := model.ParseID(c.Param("id"))
	if model.IsInvalidID(err) {
		return "", apierror.Validation("Invalid ID format")
	}
	return id, err
}

///// Create
////
//

// Create inserts a new item.
func (h *item) Create(c echo.Context) error {
	params, err := bindItemParams(c)
	if err != nil {
		return err
	}

	db := currentDatabase(c)
	item := model.NewItem(params.Name, params.Description, params.Quantity)
	if err = db.CreateItem(c.Request().Context(), item); err != nil {
		if db.IsAlreadyExists(err) {
			return apierror.Conflict("Item with this name already exists")
		}
		return apierror.Internal("Failed to create item", err)
	}

	return c.JSON(http.StatusCreated, serializer.Item(item))
}

///// List
////
//

// List renders all items, newest first.
func (h *item) List(c echo.Context) error {
	items, err := currentDatabase(c).FindItems(c.Request().Context())
	if err != nil {
		return apierror.Internal("Failed to fetch items", err)
	}

	return c.JSON(http.StatusOK, items)
}

///// Show
////
//

// Show renders the item for the given id.
func (h *item) Show(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}

	db := currentDatabase(c)
	item, err := db.FindItem(c.Request().Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			return apierror.NotFound("Item not found")
		}
		return apierror.Internal("Failed to fetch item", err)
	}

	return c.JSON(http.StatusOK, item)
}

///// Update
////
//

// Update replaces the writable fields of the item for the given id.
func (h *item) Update(c echo.Context) error {
	params, err := bindItemParams(c)
	if err != nil {
		return err
	}

	id, err := itemID(c)
	if err != nil {
		return err
	}

	db := currentDatabase(c)
	item := model.NewItem(params.Name, params.Description, params.Quantity)
	item.ID = id
	if err = db.ReplaceItem(c.Request().Context(), item); err != nil {
		switch {
		case db.IsNotFound(err):
			return apierror.NotFound("Item not found")
		case db.IsAlreadyExists(err):
			return apierror.Conflict("Item with this name already exists")
		}
		return apierror.Internal("Failed to update item", err)
	}

	return c.JSON(http.StatusOK, serializer.Item(item))
}

///// Delete
////
//

// Delete removes the item for the given id.
func (h *item) Delete(c echo.Context) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}

	db := currentDatabase(c)
	if err = db.DeleteItem(c.Request().Context(), id); err != nil {
		if db.IsNotFound(err) {
			return apierror.NotFound("Item not found")
		}
		return apierror.Internal("Failed to delete item", err)
	}

	return c.NoContent(http.StatusNoContent)
}
