package handler

import (
    "errors"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/payment"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// PaymentHandler exposes the payment routes.  Each handler validates the
// request shape, delegates to the payment service and maps service errors
// onto HTTP responses.  Validation messages are echoed verbatim; processor
// failures are logged server-side and surfaced as generic 500 bodies.
type PaymentHandler struct {
    Payments *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(p *service.PaymentService) *PaymentHandler {
    if p == nil {
        panic("nil payment service passed to NewPaymentHandler")
    }
    return &PaymentHandler{Payments: p}
}

// intentReq is the shared body of both intent-creation routes.
type intentReq struct {
    BookingID     string            `json:"bookingId"`
    Amount        float64           `json:"amount"`
    Currency      string            `json:"currency"`
    CustomerEmail string            `json:"customerEmail"`
    CustomerName  string            `json:"customerName"`
    Metadata      map[string]string `json:"metadata"`
}

func (r intentReq) toRequest() payment.IntentRequest {
    return payment.IntentRequest{
        BookingID:     r.BookingID,
        Amount:        r.Amount,
        Currency:      r.Currency,
        CustomerEmail: r.CustomerEmail,
        CustomerName:  r.CustomerName,
        Metadata:      r.Metadata,
    }
}

// paymentError maps service failures onto the route contract: validation
// problems echo their message as 400, unknown bookings are 404, a missing
// processor or any processor failure is a generic 500.
func paymentError(c echo.Context, err error, generic string) error {
    switch {
    case service.IsValidationError(err):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
    case errors.Is(err, service.ErrPaymentDeclined):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "Payment was not completed"})
    default:
        c.Logger().Errorf("payment: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": generic})
    }
}

// CreateIntent handles POST /api/payment/create-intent.  On success it
// returns the client secret the frontend finishes the payment with.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    var body intentReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    intent, err := h.Payments.CreatePaymentIntent(c.Request().Context(), body.toRequest())
    if err != nil {
        return paymentError(c, err, "Failed to create payment intent")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "clientSecret":    intent.ClientSecret,
        "paymentIntentId": intent.ID,
    })
}

// CreateCheckoutSession handles POST /api/payment/checkout-session, the
// hosted-page integration mode.
func (h *PaymentHandler) CreateCheckoutSession(c echo.Context) error {
    var body intentReq
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    sess, err := h.Payments.CreateCheckoutSession(c.Request().Context(), body.toRequest())
    if err != nil {
        return paymentError(c, err, "Failed to create checkout session")
    }
    return c.JSON(http.StatusOK, echo.Map{"checkoutUrl": sess.URL})
}

// Confirm handles POST /api/payment/confirm.  It reconciles the intent's
// processor-side outcome into the booking and reports the result.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    var body struct {
        PaymentIntentID string `json:"paymentIntentId"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    if body.PaymentIntentID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing payment intent ID"})
    }
    conf, err := h.Payments.ConfirmPayment(c.Request().Context(), body.PaymentIntentID)
    if err != nil {
        return paymentError(c, err, "Failed to confirm payment")
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":         conf.Status == model.PaymentCompleted,
        "bookingId":       conf.BookingID,
        "paymentIntentId": conf.IntentID,
        "status":          conf.Status,
        "receiptUrl":      conf.ReceiptURL,
    })
}

// GetIntent handles GET /api/payment/confirm?payment_intent_id=...  It is
// a read-only passthrough to processor state; no booking is mutated.
func (h *PaymentHandler) GetIntent(c echo.Context) error {
    intentID := c.QueryParam("payment_intent_id")
    if intentID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing payment intent ID"})
    }
    outcome, err := h.Payments.GetPaymentIntent(c.Request().Context(), intentID)
    if err != nil {
        return paymentError(c, err, "Failed to retrieve payment intent")
    }
    status := "processing"
    switch outcome.Kind {
    case payment.OutcomeSucceeded:
        status = "succeeded"
    case payment.OutcomeFailed:
        status = "failed"
    }
    return c.JSON(http.StatusOK, echo.Map{
        "paymentIntentId": outcome.IntentID,
        "status":          status,
        "amount":          outcome.Amount,
        "currency":        outcome.Currency,
    })
}

// ProcessMock handles POST /api/payment/process-mock, the development-only
// bypass.  Every failure on this route is a 400 so demo frontends get a
// readable message instead of a generic server error.
func (h *PaymentHandler) ProcessMock(c echo.Context) error {
    var body struct {
        BookingID string  `json:"bookingId"`
        Amount    float64 `json:"amount"`
        Currency  string  `json:"currency"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
    }
    receipt, err := h.Payments.ProcessMockPayment(c.Request().Context(), body.BookingID, body.Amount, body.Currency)
    if err != nil {
        switch {
        case errors.Is(err, service.ErrMockDisabled):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Mock payments are disabled"})
        case errors.Is(err, service.ErrAlreadyCompleted):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Payment already completed"})
        case errors.Is(err, repository.ErrBookingNotFound):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Booking not found"})
        case service.IsValidationError(err):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        default:
            c.Logger().Errorf("payment: mock: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process payment"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":         true,
        "paymentIntentId": receipt.IntentID,
        "status":          receipt.Status,
        "amount":          receipt.Amount,
        "receiptUrl":      receipt.ReceiptURL,
        "bookingId":       receipt.BookingID,
    })
}

// Webhook handles POST /api/payment/webhook.  The processor signs the raw
// payload; the signature is verified before any booking is touched, and a
// missing header short-circuits to 400 without reading further.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    signature := c.Request().Header.Get("Stripe-Signature")
    if signature == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing signature"})
    }
    payload, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Unreadable request body"})
    }
    if err := h.Payments.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
        if errors.Is(err, service.ErrInvalidSignature) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid signature"})
        }
        c.Logger().Errorf("payment: webhook: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to process webhook"})
    }
    return c.JSON(http.StatusOK, echo.Map{"received": true})
}
