package handler

import (
    "errors"
    "net/http"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// validate is shared by all handlers that check struct tags before
// delegating to a service.
var validate = validator.New()

// BookingHandler exposes the guest-facing booking routes.
type BookingHandler struct {
    Bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(b *service.BookingService) *BookingHandler {
    return &BookingHandler{Bookings: b}
}

// fieldMessage turns a validator field error into the message format the
// services use, so clients see one vocabulary regardless of which layer
// rejected the input.
func fieldMessage(fe validator.FieldError) string {
    field := fe.Field()
    // Go field names differ from the wire names only in their first rune.
    if len(field) > 0 {
        field = string(field[0]|0x20) + field[1:]
    }
    switch fe.Tag() {
    case "required":
        return "Missing required field: " + field
    case "email":
        return "Invalid email address"
    default:
        return "Invalid value for field: " + field
    }
}

// Create handles POST /api/bookings.  A successful booking comes back in
// pending state with its price snapshot; payment happens afterwards
// through the payment routes.
func (h *BookingHandler) Create(c echo.Context) error {
    var in service.CreateBookingInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    if err := validate.Struct(in); err != nil {
        var fes validator.ValidationErrors
        if errors.As(err, &fes) && len(fes) > 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": fieldMessage(fes[0])})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    b, err := h.Bookings.CreateBooking(c.Request().Context(), in)
    if err != nil {
        switch {
        case service.IsValidationError(err):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, repository.ErrPropertyNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
        default:
            c.Logger().Errorf("booking: create: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create booking"})
        }
    }
    return c.JSON(http.StatusCreated, b)
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    b, err := h.Bookings.GetBookingByID(c.Request().Context(), c.Param("id"))
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
        case service.IsValidationError(err):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        default:
            c.Logger().Errorf("booking: get: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load booking"})
        }
    }
    return c.JSON(http.StatusOK, b)
}
