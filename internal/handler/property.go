package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// PropertyHandler exposes the public property-browse routes.  These are
// read-only and sit behind the response cache.
type PropertyHandler struct {
    Properties service.PropertyStore
}

// NewPropertyHandler constructs a PropertyHandler.
func NewPropertyHandler(p service.PropertyStore) *PropertyHandler {
    return &PropertyHandler{Properties: p}
}

// List handles GET /api/properties, returning every active listing.
func (h *PropertyHandler) List(c echo.Context) error {
    props, err := h.Properties.ListActive(c.Request().Context())
    if err != nil {
        c.Logger().Errorf("property: list: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load properties"})
    }
    return c.JSON(http.StatusOK, echo.Map{"properties": props})
}

// Get handles GET /api/properties/:id.
func (h *PropertyHandler) Get(c echo.Context) error {
    p, err := h.Properties.GetByID(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrPropertyNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
        }
        c.Logger().Errorf("property: get: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load property"})
    }
    return c.JSON(http.StatusOK, p)
}
