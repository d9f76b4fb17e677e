// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentCompletedEvent is published when a booking's payment completes.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.  Mock is
// true when the payment came through the development-only mock path.
type PaymentCompletedEvent struct {
    BookingID   string  `json:"booking_id"`
    PropertyID  string  `json:"property_id"`
    IntentID    string  `json:"payment_intent_id"`
    Amount      float64 `json:"amount"`
    Currency    string  `json:"currency"`
    GuestEmail  string  `json:"guest_email"`
    CompletedAt string  `json:"completed_at"`
    Mock        bool    `json:"mock"`
}
