package service

import (
    "context"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/syedhammad74/expatstays-booking-api/internal/metrics"
    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/payment"
    q "github.com/syedhammad74/expatstays-booking-api/internal/queue"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
)

// BookingStore is the slice of the booking repository the services depend
// on.  *repository.BookingRepo satisfies it; tests substitute an in-memory
// implementation.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByID(ctx context.Context, id string) (*model.Booking, error)
    GetByIntentID(ctx context.Context, intentID string) (*model.Booking, error)
    List(ctx context.Context, limit, offset int) ([]model.Booking, error)
    UpdatePayment(ctx context.Context, id string, version uint64, p model.PaymentInfo, status model.BookingStatus) error
    UpdateStatus(ctx context.Context, id string, version uint64, status model.BookingStatus) error
}

// PropertyStore is the slice of the property repository the booking
// service reads from.
type PropertyStore interface {
    GetByID(ctx context.Context, id string) (*model.Property, error)
    ListActive(ctx context.Context) ([]model.Property, error)
}

// Sentinel errors surfaced by the payment service.  Handlers translate
// these into specific HTTP responses.
var (
    ErrMockDisabled      = errors.New("mock payments are disabled")
    ErrAlreadyCompleted  = errors.New("payment already completed")
    ErrPaymentDeclined   = errors.New("payment was not completed")
    ErrInvalidSignature  = errors.New("invalid webhook signature")
    ErrInvalidTransition = errors.New("payment state transition not allowed")
    ErrNotRefundable     = errors.New("payment is not refundable")
)

// ValidationError marks input problems whose message is safe to echo back
// to the client verbatim as a 400 response.
type ValidationError struct{ msg string }

func (e *ValidationError) Error() string { return e.msg }

// NewValidationError wraps a client-safe message.
func NewValidationError(msg string) error { return &ValidationError{msg: msg} }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
    var v *ValidationError
    return errors.As(err, &v)
}

// Confirmation is returned by ConfirmPayment and the mock path.
type Confirmation struct {
    BookingID  string              `json:"bookingId"`
    IntentID   string              `json:"paymentIntentId"`
    Status     model.PaymentStatus `json:"status"`
    ReceiptURL string              `json:"receiptUrl,omitempty"`
}

// MockReceipt is the response payload of the development-only mock path.
type MockReceipt struct {
    IntentID   string  `json:"paymentIntentId"`
    Status     string  `json:"status"`
    Amount     float64 `json:"amount"`
    ReceiptURL string  `json:"receiptUrl"`
    BookingID  string  `json:"bookingId"`
}

// PaymentService translates booking-payment intents into calls against the
// configured payment processor and reconciles outcomes into the booking
// record.  All booking mutations go through the payment state machine and
// compare-and-swap repository updates, so a client-initiated confirmation
// racing an asynchronous webhook for the same payment converges on a
// single consistent final state.
type PaymentService struct {
    bookings BookingStore
    proc     payment.Processor
    mockMode bool
    publish  func(ctx context.Context, ev q.PaymentCompletedEvent) error
    now      func() time.Time
}

// NewPaymentService wires the service.  proc may be nil when no processor
// credentials were configured; every operation needing it then fails with
// payment.ErrNotConfigured.  When mockMode is true the caller is expected
// to have supplied a mock processor.
func NewPaymentService(bookings BookingStore, proc payment.Processor, mockMode bool) *PaymentService {
    return &PaymentService{
        bookings: bookings,
        proc:     proc,
        mockMode: mockMode,
        publish:  PublishPaymentCompleted,
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// validateIntentRequest enforces the preconditions shared by both intent
// creation modes: a positive amount and non-empty identity fields.
func validateIntentRequest(req payment.IntentRequest) error {
    switch {
    case req.BookingID == "":
        return NewValidationError("Missing required field: bookingId")
    case req.Amount <= 0:
        return NewValidationError("Amount must be greater than 0")
    case req.Currency == "":
        return NewValidationError("Missing required field: currency")
    case req.CustomerEmail == "":
        return NewValidationError("Missing required field: customerEmail")
    case req.CustomerName == "":
        return NewValidationError("Missing required field: customerName")
    }
    return nil
}

// CreatePaymentIntent opens a payment with the processor and returns the
// client secret the frontend completes it with.  The booking itself is not
// mutated yet; reconciliation happens on confirm or webhook.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
    if err := validateIntentRequest(req); err != nil {
        return nil, err
    }
    if _, err := s.bookings.GetByID(ctx, req.BookingID); err != nil {
        return nil, err
    }
    if s.proc == nil {
        return nil, payment.ErrNotConfigured
    }
    return s.proc.CreateIntent(ctx, req)
}

// CreateCheckoutSession is the alternate integration mode: it returns a
// hosted checkout URL instead of a client secret.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, req payment.IntentRequest) (*payment.CheckoutSession, error) {
    if err := validateIntentRequest(req); err != nil {
        return nil, err
    }
    if _, err := s.bookings.GetByID(ctx, req.BookingID); err != nil {
        return nil, err
    }
    if s.proc == nil {
        return nil, payment.ErrNotConfigured
    }
    return s.proc.CreateCheckoutSession(ctx, req)
}

// GetPaymentIntent is a read-only passthrough to processor state.  No
// booking is mutated.
func (s *PaymentService) GetPaymentIntent(ctx context.Context, intentID string) (payment.Outcome, error) {
    if intentID == "" {
        return payment.Outcome{}, NewValidationError("Missing payment intent ID")
    }
    if s.proc == nil {
        return payment.Outcome{}, payment.ErrNotConfigured
    }
    return s.proc.GetIntent(ctx, intentID)
}

// ConfirmPayment queries the processor for the intent's outcome and
// reconciles it into the booking.  A succeeded intent completes the
// payment and confirms the booking; calling it again for the same intent
// is a no-op that reports the already-confirmed state.  A declined intent
// marks the payment failed (from pending only) and surfaces
// ErrPaymentDeclined; there is no automatic retry.
func (s *PaymentService) ConfirmPayment(ctx context.Context, intentID string) (*Confirmation, error) {
    if intentID == "" {
        return nil, NewValidationError("Missing payment intent ID")
    }
    if s.proc == nil {
        return nil, payment.ErrNotConfigured
    }
    outcome, err := s.proc.GetIntent(ctx, intentID)
    if err != nil {
        return nil, err
    }
    b, err := s.resolveBooking(ctx, outcome.BookingID, intentID)
    if err != nil {
        return nil, err
    }
    switch outcome.Kind {
    case payment.OutcomeSucceeded:
        if err := s.applyCompleted(ctx, b, intentID, outcome.ReceiptURL, outcome.Amount, false); err != nil {
            return nil, err
        }
        return &Confirmation{
            BookingID:  b.ID,
            IntentID:   intentID,
            Status:     model.PaymentCompleted,
            ReceiptURL: outcome.ReceiptURL,
        }, nil
    case payment.OutcomeFailed:
        if applyErr := s.applyFailed(ctx, b, intentID); applyErr != nil {
            log.Printf("payment: mark failed for booking %s: %v", b.ID, applyErr)
        }
        return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, outcome.Reason)
    default:
        return &Confirmation{BookingID: b.ID, IntentID: intentID, Status: model.PaymentPending}, nil
    }
}

// ProcessMockPayment simulates a successful payment without contacting any
// processor.  It is callable only when mock mode is enabled and applies
// the identical booking-mutation contract as ConfirmPayment, so downstream
// code cannot tell a mock completion from a real one except by the
// synthetic intent id prefix.
func (s *PaymentService) ProcessMockPayment(ctx context.Context, bookingID string, amount float64, currency string) (*MockReceipt, error) {
    if !s.mockMode {
        return nil, ErrMockDisabled
    }
    if s.proc == nil {
        return nil, payment.ErrNotConfigured
    }
    if bookingID == "" {
        return nil, NewValidationError("Missing required field: bookingId")
    }
    if amount <= 0 {
        return nil, NewValidationError("Amount must be greater than 0")
    }
    b, err := s.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b.Payment.Status == model.PaymentCompleted {
        return nil, ErrAlreadyCompleted
    }
    if currency == "" {
        currency = b.Pricing.Currency
    }
    intent, err := s.proc.CreateIntent(ctx, payment.IntentRequest{
        BookingID:     bookingID,
        Amount:        amount,
        Currency:      currency,
        CustomerEmail: b.GuestEmail,
        CustomerName:  b.GuestName,
    })
    if err != nil {
        return nil, err
    }
    outcome, err := s.proc.GetIntent(ctx, intent.ID)
    if err != nil {
        return nil, err
    }
    if err := s.applyCompleted(ctx, b, intent.ID, outcome.ReceiptURL, amount, true); err != nil {
        return nil, err
    }
    return &MockReceipt{
        IntentID:   intent.ID,
        Status:     "succeeded",
        Amount:     amount,
        ReceiptURL: outcome.ReceiptURL,
        BookingID:  bookingID,
    }, nil
}

// HandleWebhook verifies the processor's signature against the raw payload
// and applies the event's state transition.  Verification fails closed: no
// booking is touched unless the signature checks out.  Events for unknown
// bookings, and events whose transition the state machine rejects, are
// logged and acknowledged so the processor stops redelivering them.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
    if signature == "" {
        return NewValidationError("Missing signature")
    }
    if s.proc == nil {
        return payment.ErrNotConfigured
    }
    ev, err := s.proc.VerifyWebhook(payload, signature)
    if err != nil {
        metrics.IncWebhookReceived("invalid_signature")
        return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
    }
    switch ev.Type {
    case payment.EventPaymentSucceeded:
        b, err := s.resolveBooking(ctx, ev.BookingID, ev.IntentID)
        if err != nil {
            return s.ackUnknown(ev, err)
        }
        metrics.IncWebhookReceived("succeeded")
        return s.ackStale(ev, s.applyCompleted(ctx, b, ev.IntentID, ev.ReceiptURL, b.Pricing.Total, false))
    case payment.EventPaymentFailed:
        b, err := s.resolveBooking(ctx, ev.BookingID, ev.IntentID)
        if err != nil {
            return s.ackUnknown(ev, err)
        }
        metrics.IncWebhookReceived("failed")
        return s.ackStale(ev, s.applyFailed(ctx, b, ev.IntentID))
    case payment.EventRefunded:
        b, err := s.resolveBooking(ctx, ev.BookingID, ev.IntentID)
        if err != nil {
            return s.ackUnknown(ev, err)
        }
        metrics.IncWebhookReceived("refunded")
        return s.ackStale(ev, s.applyRefunded(ctx, b, ev.RefundID, ev.RefundAmount))
    default:
        metrics.IncWebhookReceived("ignored")
        return nil
    }
}

// RefundPayment refunds a completed payment with the processor and moves
// the payment sub-state to refunded.  Admin-only; only completed payments
// are refundable and refunded is terminal.
func (s *PaymentService) RefundPayment(ctx context.Context, bookingID string) (*payment.RefundResult, error) {
    b, err := s.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b.Payment.Status != model.PaymentCompleted {
        return nil, ErrNotRefundable
    }
    if s.proc == nil {
        return nil, payment.ErrNotConfigured
    }
    res, err := s.proc.Refund(ctx, b.Payment.IntentID, 0)
    if err != nil {
        return nil, err
    }
    if err := s.applyRefunded(ctx, b, res.RefundID, res.Amount); err != nil {
        return nil, err
    }
    return res, nil
}

// resolveBooking finds the booking an event or confirmation refers to,
// preferring the booking id carried in intent metadata and falling back to
// the stored intent reference.
func (s *PaymentService) resolveBooking(ctx context.Context, bookingID, intentID string) (*model.Booking, error) {
    if bookingID != "" {
        return s.bookings.GetByID(ctx, bookingID)
    }
    return s.bookings.GetByIntentID(ctx, intentID)
}

// ackUnknown logs an event that references no known booking and reports
// success so the processor does not redeliver forever.
func (s *PaymentService) ackUnknown(ev *payment.Event, err error) error {
    if errors.Is(err, repository.ErrBookingNotFound) {
        log.Printf("payment: webhook %s for unknown booking (intent=%s): %v", ev.Type, ev.IntentID, err)
        metrics.IncWebhookReceived("unknown_booking")
        return nil
    }
    return err
}

// ackStale logs a verified event whose transition the state machine
// rejects, such as a succeeded event delivered after the payment was
// refunded, and reports success.  The event can never apply, so a
// redelivery would only fail the same way again.
func (s *PaymentService) ackStale(ev *payment.Event, err error) error {
    if errors.Is(err, ErrInvalidTransition) {
        log.Printf("payment: webhook %s ignored for intent %s: %v", ev.Type, ev.IntentID, err)
        metrics.IncWebhookReceived("stale")
        return nil
    }
    return err
}

// applyCompleted moves a booking to payment=completed, status=confirmed.
// Already-completed bookings are an idempotent no-op.  On a version
// conflict the booking is re-read once: if a concurrent writer already
// completed it, that is success; otherwise the transition is retried
// against the fresh version.
func (s *PaymentService) applyCompleted(ctx context.Context, b *model.Booking, intentID, receiptURL string, amount float64, mock bool) error {
    for attempt := 0; attempt < 2; attempt++ {
        if b.Payment.Status == model.PaymentCompleted {
            return nil
        }
        if !b.Payment.Status.CanTransition(model.PaymentCompleted) {
            return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, b.Payment.Status)
        }
        now := s.now()
        p := b.Payment
        p.Status = model.PaymentCompleted
        p.IntentID = intentID
        p.ReceiptURL = receiptURL
        p.ProcessedAt = &now
        err := s.bookings.UpdatePayment(ctx, b.ID, b.Version, p, model.BookingConfirmed)
        if err == nil {
            metrics.IncPaymentProcessed("completed")
            s.announceCompleted(ctx, b, intentID, amount, now, mock)
            return nil
        }
        if errors.Is(err, repository.ErrVersionConflict) {
            fresh, rerr := s.bookings.GetByID(ctx, b.ID)
            if rerr != nil {
                return rerr
            }
            b = fresh
            continue
        }
        return err
    }
    // Two conflicts in a row and still not completed: give up loudly.
    return repository.ErrVersionConflict
}

// applyFailed marks the payment failed.  Only a pending payment can fail;
// a completed payment is never downgraded.
func (s *PaymentService) applyFailed(ctx context.Context, b *model.Booking, intentID string) error {
    if b.Payment.Status == model.PaymentFailed {
        return nil
    }
    if !b.Payment.Status.CanTransition(model.PaymentFailed) {
        return fmt.Errorf("%w: %s -> failed", ErrInvalidTransition, b.Payment.Status)
    }
    now := s.now()
    p := b.Payment
    p.Status = model.PaymentFailed
    p.IntentID = intentID
    p.ProcessedAt = &now
    err := s.bookings.UpdatePayment(ctx, b.ID, b.Version, p, "")
    if err == nil {
        metrics.IncPaymentProcessed("failed")
        return nil
    }
    if errors.Is(err, repository.ErrVersionConflict) {
        // Concurrent writer won; whatever state it set stands.
        return nil
    }
    return err
}

// applyRefunded moves a completed payment to refunded, recording the
// refund identifiers.  Refunded is terminal, so a duplicate refund event
// is an idempotent no-op.
func (s *PaymentService) applyRefunded(ctx context.Context, b *model.Booking, refundID string, amount float64) error {
    for attempt := 0; attempt < 2; attempt++ {
        if b.Payment.Status == model.PaymentRefunded {
            return nil
        }
        if !b.Payment.Status.CanTransition(model.PaymentRefunded) {
            return fmt.Errorf("%w: %s -> refunded", ErrInvalidTransition, b.Payment.Status)
        }
        now := s.now()
        p := b.Payment
        p.Status = model.PaymentRefunded
        p.RefundID = refundID
        p.RefundAmount = amount
        p.ProcessedAt = &now
        err := s.bookings.UpdatePayment(ctx, b.ID, b.Version, p, "")
        if err == nil {
            metrics.IncPaymentProcessed("refunded")
            return nil
        }
        if errors.Is(err, repository.ErrVersionConflict) {
            fresh, rerr := s.bookings.GetByID(ctx, b.ID)
            if rerr != nil {
                return rerr
            }
            b = fresh
            continue
        }
        return err
    }
    return repository.ErrVersionConflict
}

// announceCompleted publishes the completion event to the broker.  Publish
// failures are logged by the publisher and never fail the payment.
func (s *PaymentService) announceCompleted(ctx context.Context, b *model.Booking, intentID string, amount float64, at time.Time, mock bool) {
    if s.publish == nil {
        return
    }
    _ = s.publish(ctx, q.PaymentCompletedEvent{
        BookingID:   b.ID,
        PropertyID:  b.PropertyID,
        IntentID:    intentID,
        Amount:      amount,
        Currency:    b.Pricing.Currency,
        GuestEmail:  b.GuestEmail,
        CompletedAt: at.Format(time.RFC3339),
        Mock:        mock,
    })
}
