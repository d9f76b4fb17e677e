package model

import "time"

// BookingStatus is the lifecycle state of a reservation itself, independent
// of how far its payment has progressed.  A booking is created as
// BookingPending and may only become BookingConfirmed after its payment has
// completed.  Bookings are never deleted; they are transitioned to
// BookingCancelled or BookingCompleted instead.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"   // created, awaiting payment
    BookingConfirmed BookingStatus = "confirmed" // payment completed
    BookingCancelled BookingStatus = "cancelled" // withdrawn by guest or admin
    BookingCompleted BookingStatus = "completed" // stay finished
)

// Valid reports whether s is one of the known booking statuses.
func (s BookingStatus) Valid() bool {
    switch s {
    case BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted:
        return true
    }
    return false
}

// PaymentStatus is the payment sub-state of a booking.  Transitions are
// restricted: pending may move to completed, failed or canceled; completed
// may move to refunded; refunded is terminal.  No transition ever returns
// to pending once it has been left.
type PaymentStatus string

const (
    PaymentPending   PaymentStatus = "pending"
    PaymentCompleted PaymentStatus = "completed"
    PaymentFailed    PaymentStatus = "failed"
    PaymentCanceled  PaymentStatus = "canceled"
    PaymentRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
    switch s {
    case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCanceled, PaymentRefunded:
        return true
    }
    return false
}

// CanTransition reports whether the payment state machine allows moving
// from s to the given target state.  A transition to the current state is
// never allowed through here; callers treat that case as an idempotent
// no-op instead.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
    switch s {
    case PaymentPending:
        return to == PaymentCompleted || to == PaymentFailed || to == PaymentCanceled
    case PaymentCompleted:
        return to == PaymentRefunded
    case PaymentFailed, PaymentCanceled, PaymentRefunded:
        return false
    }
    return false
}

// Guests records the composition of a booking's party.  Total must always
// equal Adults+Children+Infants and be at least 1.
type Guests struct {
    Adults   int `json:"adults"`
    Children int `json:"children"`
    Infants  int `json:"infants"`
    Total    int `json:"total"`
}

// Validate checks the party composition invariants.
func (g Guests) Validate() bool {
    if g.Adults < 0 || g.Children < 0 || g.Infants < 0 {
        return false
    }
    return g.Total == g.Adults+g.Children+g.Infants && g.Total >= 1
}

// Pricing is the immutable price snapshot taken when a booking is created.
// Subtotal = BasePrice * Nights and Total = Subtotal + CleaningFee +
// ServiceFee + Taxes.  Amounts are in major currency units (e.g. dollars);
// conversion to minor units happens at the payment-processor boundary.
type Pricing struct {
    BasePrice   float64 `json:"base_price"`
    Nights      int     `json:"nights"`
    Subtotal    float64 `json:"subtotal"`
    CleaningFee float64 `json:"cleaning_fee"`
    ServiceFee  float64 `json:"service_fee"`
    Taxes       float64 `json:"taxes"`
    Total       float64 `json:"total"`
    Currency    string  `json:"currency"`
}

// ComputePricing builds a pricing snapshot from a property's rates.  The
// service fee is a fraction of the subtotal and taxes apply to the subtotal
// plus all fees.  All derived amounts are rounded to cents.
func ComputePricing(basePrice float64, nights int, cleaningFee, serviceRate, taxRate float64, currency string) Pricing {
    subtotal := round2(basePrice * float64(nights))
    serviceFee := round2(subtotal * serviceRate)
    taxes := round2((subtotal + cleaningFee + serviceFee) * taxRate)
    return Pricing{
        BasePrice:   basePrice,
        Nights:      nights,
        Subtotal:    subtotal,
        CleaningFee: cleaningFee,
        ServiceFee:  serviceFee,
        Taxes:       taxes,
        Total:       round2(subtotal + cleaningFee + serviceFee + taxes),
        Currency:    currency,
    }
}

func round2(v float64) float64 {
    if v < 0 {
        return float64(int64(v*100-0.5)) / 100
    }
    return float64(int64(v*100+0.5)) / 100
}

// PaymentInfo carries the payment sub-state of a booking together with the
// identifiers handed back by the external processor.  ProcessedAt records
// when the payment reached a terminal-ish state (completed, failed or
// refunded).
type PaymentInfo struct {
    Status       PaymentStatus `json:"status"`
    IntentID     string        `json:"payment_intent_id,omitempty"`
    ReceiptURL   string        `json:"receipt_url,omitempty"`
    RefundID     string        `json:"refund_id,omitempty"`
    RefundAmount float64       `json:"refund_amount,omitempty"`
    ProcessedAt  *time.Time    `json:"processed_at,omitempty"`
}

// Booking records a guest's reservation of a property for a date range.
// The Version field implements optimistic concurrency: every update must
// supply the version it read, and the repository rejects writes whose
// version no longer matches, closing the race between a client-initiated
// confirmation and an asynchronous webhook for the same payment.
//
// Fields:
//  ID         – opaque identifier (UUID string).
//  PropertyID – property being booked.
//  GuestName  – display name of the paying guest.
//  GuestEmail – contact email of the paying guest.
//  CheckIn    – arrival date (must be before CheckOut).
//  CheckOut   – departure date.
//  Nights     – derived night count (CheckOut - CheckIn in days).
//  Guests     – party composition.
//  Pricing    – price snapshot taken at creation.
//  Status     – reservation lifecycle state.
//  Payment    – payment sub-state and processor identifiers.
//  Version    – optimistic-concurrency counter, bumped on every update.
type Booking struct {
    ID         string        `json:"id"`
    PropertyID string        `json:"property_id"`
    GuestName  string        `json:"guest_name"`
    GuestEmail string        `json:"guest_email"`
    CheckIn    time.Time     `json:"check_in"`
    CheckOut   time.Time     `json:"check_out"`
    Nights     int           `json:"nights"`
    Guests     Guests        `json:"guests"`
    Pricing    Pricing       `json:"pricing"`
    Status     BookingStatus `json:"status"`
    Payment    PaymentInfo   `json:"payment"`
    Version    uint64        `json:"version"`
    CreatedAt  time.Time     `json:"created_at"`
    UpdatedAt  time.Time     `json:"updated_at"`
}

// NightsBetween returns the number of nights between two dates.  Times are
// truncated to whole days in UTC before differencing.
func NightsBetween(checkIn, checkOut time.Time) int {
    in := checkIn.UTC().Truncate(24 * time.Hour)
    out := checkOut.UTC().Truncate(24 * time.Hour)
    return int(out.Sub(in).Hours() / 24)
}
