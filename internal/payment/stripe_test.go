package payment

import (
    "encoding/json"
    "errors"
    "testing"

    "github.com/stripe/stripe-go/v79"
)

// stubEvent builds a StripeProcessor whose signature check is replaced by a
// stub returning the given event, so the mapping logic can be exercised
// without computing real signatures.
func stubEvent(t *testing.T, evType string, payload interface{}) *StripeProcessor {
    t.Helper()
    raw, err := json.Marshal(payload)
    if err != nil {
        t.Fatalf("marshal payload: %v", err)
    }
    p := NewStripeProcessor("sk_test_x", "whsec_x", "https://x/success", "https://x/cancel")
    p.construct = func(_ []byte, _, _ string) (stripe.Event, error) {
        return stripe.Event{
            Type: stripe.EventType(evType),
            Data: &stripe.EventData{Raw: raw},
        }, nil
    }
    return p
}

func TestVerifyWebhookSucceededEvent(t *testing.T) {
    p := stubEvent(t, "payment_intent.succeeded", map[string]interface{}{
        "id":       "pi_123",
        "metadata": map[string]string{"booking_id": "b1"},
    })
    ev, err := p.VerifyWebhook([]byte("{}"), "sig")
    if err != nil {
        t.Fatalf("VerifyWebhook: %v", err)
    }
    if ev.Type != EventPaymentSucceeded {
        t.Errorf("type = %v, want succeeded", ev.Type)
    }
    if ev.IntentID != "pi_123" || ev.BookingID != "b1" {
        t.Errorf("intent=%q booking=%q, want pi_123/b1", ev.IntentID, ev.BookingID)
    }
}

func TestVerifyWebhookFailedEvent(t *testing.T) {
    p := stubEvent(t, "payment_intent.payment_failed", map[string]interface{}{
        "id": "pi_456",
    })
    ev, err := p.VerifyWebhook([]byte("{}"), "sig")
    if err != nil {
        t.Fatalf("VerifyWebhook: %v", err)
    }
    if ev.Type != EventPaymentFailed {
        t.Errorf("type = %v, want failed", ev.Type)
    }
}

func TestVerifyWebhookIgnoresUnknownTypes(t *testing.T) {
    p := stubEvent(t, "customer.created", map[string]interface{}{"id": "cus_1"})
    ev, err := p.VerifyWebhook([]byte("{}"), "sig")
    if err != nil {
        t.Fatalf("VerifyWebhook: %v", err)
    }
    if ev.Type != EventIgnored {
        t.Errorf("type = %v, want ignored", ev.Type)
    }
}

func TestVerifyWebhookBadSignature(t *testing.T) {
    p := NewStripeProcessor("sk_test_x", "whsec_x", "https://x/success", "https://x/cancel")
    p.construct = func(_ []byte, _, _ string) (stripe.Event, error) {
        return stripe.Event{}, errors.New("signature mismatch")
    }
    if _, err := p.VerifyWebhook([]byte("{}"), "bad"); err == nil {
        t.Error("expected error on bad signature")
    }
}

func TestMinorUnits(t *testing.T) {
    cases := map[float64]int64{
        250:   25000,
        250.5: 25050,
        0.1:   10,
        19.99: 1999,
    }
    for in, want := range cases {
        if got := minorUnits(in); got != want {
            t.Errorf("minorUnits(%v) = %d, want %d", in, got, want)
        }
    }
}
