// Package payment abstracts the external payment processor behind a single
// interface with two implementations: a real Stripe-backed processor and a
// mock used in development when no processor credentials are present.  The
// implementation is selected by configuration at construction time, so no
// code outside this package branches on mock-mode flags.
package payment

import (
    "context"
    "errors"
)

// ErrNotConfigured is returned by a nil-safe processor facade when no
// processor credentials were supplied and mock mode is off.
var ErrNotConfigured = errors.New("payment processor not configured")

// IntentRequest carries everything needed to open a payment against the
// processor.  Amount is in major currency units; implementations convert
// to minor units themselves.
type IntentRequest struct {
    BookingID     string
    Amount        float64
    Currency      string
    CustomerEmail string
    CustomerName  string
    Metadata      map[string]string
}

// Intent is the processor-side record created for a payment.  The client
// completes the payment using ClientSecret.
type Intent struct {
    ID           string
    ClientSecret string
}

// CheckoutSession is the alternate integration mode: instead of a client
// secret, the processor hosts the payment page at URL.
type CheckoutSession struct {
    ID  string
    URL string
}

// OutcomeKind tags an Outcome.  Every consumer switches exhaustively on
// the kind rather than inspecting loosely-typed processor responses.
type OutcomeKind int

const (
    // OutcomePending means the processor has not finished the payment.
    OutcomePending OutcomeKind = iota
    // OutcomeSucceeded means money moved; IntentID and ReceiptURL are set.
    OutcomeSucceeded
    // OutcomeFailed means the processor declined; Reason is set.
    OutcomeFailed
)

// Outcome is the tagged result of querying a payment's state.  BookingID
// comes from intent metadata and may be empty when the intent was not
// created by this service.
type Outcome struct {
    Kind       OutcomeKind
    IntentID   string
    BookingID  string
    ReceiptURL string
    Reason     string
    Amount     float64
    Currency   string
}

// Event is a verified webhook notification, reduced to the fields the
// reconciliation flow acts on.  BookingID is taken from intent metadata
// and may be empty, in which case the caller resolves the booking by
// IntentID.
type Event struct {
    Type         EventType
    IntentID     string
    BookingID    string
    ReceiptURL   string
    RefundID     string
    RefundAmount float64
}

// EventType classifies webhook notifications.
type EventType string

const (
    EventPaymentSucceeded EventType = "payment_succeeded"
    EventPaymentFailed    EventType = "payment_failed"
    EventRefunded         EventType = "refunded"
    // EventIgnored covers every processor event type the flow does not
    // act on; handlers acknowledge it without touching any booking.
    EventIgnored EventType = "ignored"
)

// RefundResult reports a processor-side refund.
type RefundResult struct {
    RefundID string
    Amount   float64
}

// Processor is the capability surface the payment service depends on.
type Processor interface {
    // CreateIntent opens a payment and returns its id and client secret.
    CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
    // CreateCheckoutSession opens a hosted checkout page for the payment.
    CreateCheckoutSession(ctx context.Context, req IntentRequest) (*CheckoutSession, error)
    // GetIntent queries the processor for the payment's current outcome.
    GetIntent(ctx context.Context, intentID string) (Outcome, error)
    // Refund returns the money for a succeeded payment.
    Refund(ctx context.Context, intentID string, amount float64) (*RefundResult, error)
    // VerifyWebhook checks the signature against the raw payload and, when
    // valid, decodes the notification.  It fails closed: any signature
    // problem is an error and no Event is returned.
    VerifyWebhook(payload []byte, signature string) (*Event, error)
}
