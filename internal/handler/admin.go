package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// AdminHandler exposes the staff-only routes: booking oversight, payment
// corrections, refunds and property pricing.  All of them sit behind the
// JWT middleware plus an ADMIN role check.
type AdminHandler struct {
    Bookings   *service.BookingService
    Payments   *service.PaymentService
    Properties *repository.PropertyRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(b *service.BookingService, p *service.PaymentService, props *repository.PropertyRepo) *AdminHandler {
    return &AdminHandler{Bookings: b, Payments: p, Properties: props}
}

// ListBookings handles GET /api/admin/bookings?limit=&offset=.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    offset, _ := strconv.Atoi(c.QueryParam("offset"))
    bookings, err := h.Bookings.ListBookings(c.Request().Context(), limit, offset)
    if err != nil {
        c.Logger().Errorf("admin: list bookings: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}

// UpdateBookingStatus handles PATCH /api/admin/bookings/:id/status.
func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
    var body struct {
        Status model.BookingStatus `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    b, err := h.Bookings.UpdateBookingStatus(c.Request().Context(), c.Param("id"), body.Status)
    if err != nil {
        return adminError(c, err, "Failed to update booking status")
    }
    return c.JSON(http.StatusOK, b)
}

// UpdateBookingPayment handles PATCH /api/admin/bookings/:id/payment, a
// partial update of the payment sub-state.  Status changes still go
// through the payment state machine; illegal transitions are rejected.
func (h *AdminHandler) UpdateBookingPayment(c echo.Context) error {
    var patch service.PaymentPatch
    if err := c.Bind(&patch); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    b, err := h.Bookings.UpdateBookingPayment(c.Request().Context(), c.Param("id"), patch)
    if err != nil {
        return adminError(c, err, "Failed to update booking payment")
    }
    return c.JSON(http.StatusOK, b)
}

// RefundBooking handles POST /api/admin/bookings/:id/refund.  Only a
// completed payment can be refunded, and refunded is terminal.
func (h *AdminHandler) RefundBooking(c echo.Context) error {
    res, err := h.Payments.RefundPayment(c.Request().Context(), c.Param("id"))
    if err != nil {
        if errors.Is(err, service.ErrNotRefundable) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Payment is not refundable"})
        }
        return adminError(c, err, "Failed to refund payment")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "refundId": res.RefundID,
        "amount":   res.Amount,
    })
}

// UpdatePropertyPricing handles PATCH /api/admin/properties/:id/pricing.
// New rates affect future bookings only; existing price snapshots are
// immutable.
func (h *AdminHandler) UpdatePropertyPricing(c echo.Context) error {
    var body struct {
        BasePrice      float64 `json:"basePrice"`
        CleaningFee    float64 `json:"cleaningFee"`
        ServiceFeeRate float64 `json:"serviceFeeRate"`
        TaxRate        float64 `json:"taxRate"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    if body.BasePrice <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Base price must be greater than 0"})
    }
    if body.CleaningFee < 0 || body.ServiceFeeRate < 0 || body.TaxRate < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rates must not be negative"})
    }
    err := h.Properties.UpdatePricing(c.Request().Context(), c.Param("id"),
        body.BasePrice, body.CleaningFee, body.ServiceFeeRate, body.TaxRate)
    if err != nil {
        return adminError(c, err, "Failed to update property pricing")
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// SetPropertyActive handles PATCH /api/admin/properties/:id/availability.
func (h *AdminHandler) SetPropertyActive(c echo.Context) error {
    var body struct {
        IsActive *bool `json:"isActive"`
    }
    if err := c.Bind(&body); err != nil || body.IsActive == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: isActive"})
    }
    if err := h.Properties.SetActive(c.Request().Context(), c.Param("id"), *body.IsActive); err != nil {
        return adminError(c, err, "Failed to update property availability")
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// adminError maps the common repository/service failures of the admin
// routes onto HTTP responses.
func adminError(c echo.Context, err error, generic string) error {
    switch {
    case service.IsValidationError(err):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
    case errors.Is(err, repository.ErrPropertyNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Property not found"})
    case errors.Is(err, repository.ErrVersionConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "Booking was modified concurrently, retry"})
    default:
        c.Logger().Errorf("admin: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": generic})
    }
}
