package payment

import (
    "context"
    "encoding/json"
    "fmt"
    "math"

    "github.com/stripe/stripe-go/v79"
    "github.com/stripe/stripe-go/v79/client"
    "github.com/stripe/stripe-go/v79/webhook"
)

// constructEvent is the production signature check; tests swap it out to
// exercise VerifyWebhook's event mapping without real signatures.
func constructEvent(payload []byte, header, secret string) (stripe.Event, error) {
    return webhook.ConstructEvent(payload, header, secret)
}

// StripeProcessor implements Processor against the Stripe API.  Each
// processor owns its own API client so credentials are injected once at
// construction instead of through package-level state.
type StripeProcessor struct {
    api           *client.API
    webhookSecret string
    successURL    string
    cancelURL     string
    construct     func(payload []byte, header, secret string) (stripe.Event, error)
}

// NewStripeProcessor builds a processor from the secret API key and the
// webhook signing secret.  successURL and cancelURL are where hosted
// checkout sends the guest afterwards.
func NewStripeProcessor(secretKey, webhookSecret, successURL, cancelURL string) *StripeProcessor {
    api := &client.API{}
    api.Init(secretKey, nil)
    return &StripeProcessor{
        api:           api,
        webhookSecret: webhookSecret,
        successURL:    successURL,
        cancelURL:     cancelURL,
        construct:     constructEvent,
    }
}

// minorUnits converts a major-unit amount to integer cents, rounding half
// away from zero so 250.005 does not silently truncate.
func minorUnits(amount float64) int64 {
    return int64(math.Round(amount * 100))
}

// CreateIntent opens a PaymentIntent carrying the booking id in metadata so
// webhook events can be traced back to the booking without a lookup.
func (p *StripeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
    params := &stripe.PaymentIntentParams{
        Amount:       stripe.Int64(minorUnits(req.Amount)),
        Currency:     stripe.String(req.Currency),
        ReceiptEmail: stripe.String(req.CustomerEmail),
        Description:  stripe.String("Booking " + req.BookingID),
    }
    params.Context = ctx
    params.AddMetadata("booking_id", req.BookingID)
    params.AddMetadata("customer_name", req.CustomerName)
    for k, v := range req.Metadata {
        params.AddMetadata(k, v)
    }
    pi, err := p.api.PaymentIntents.New(params)
    if err != nil {
        return nil, fmt.Errorf("stripe: create intent: %w", err)
    }
    return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// CreateCheckoutSession opens a hosted checkout page for the full booking
// amount as a single line item.
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, req IntentRequest) (*CheckoutSession, error) {
    params := &stripe.CheckoutSessionParams{
        Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
        CustomerEmail: stripe.String(req.CustomerEmail),
        SuccessURL:    stripe.String(p.successURL),
        CancelURL:     stripe.String(p.cancelURL),
        LineItems: []*stripe.CheckoutSessionLineItemParams{
            {
                Quantity: stripe.Int64(1),
                PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
                    Currency:   stripe.String(req.Currency),
                    UnitAmount: stripe.Int64(minorUnits(req.Amount)),
                    ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
                        Name: stripe.String("Booking " + req.BookingID),
                    },
                },
            },
        },
        PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
            Metadata: map[string]string{"booking_id": req.BookingID},
        },
    }
    params.Context = ctx
    s, err := p.api.CheckoutSessions.New(params)
    if err != nil {
        return nil, fmt.Errorf("stripe: create checkout session: %w", err)
    }
    return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetIntent retrieves the PaymentIntent and maps its status onto the
// tagged Outcome type.
func (p *StripeProcessor) GetIntent(ctx context.Context, intentID string) (Outcome, error) {
    params := &stripe.PaymentIntentParams{}
    params.Context = ctx
    pi, err := p.api.PaymentIntents.Get(intentID, params)
    if err != nil {
        return Outcome{}, fmt.Errorf("stripe: get intent: %w", err)
    }
    out := Outcome{
        IntentID:  pi.ID,
        BookingID: pi.Metadata["booking_id"],
        Amount:    float64(pi.Amount) / 100,
        Currency:  string(pi.Currency),
    }
    switch pi.Status {
    case stripe.PaymentIntentStatusSucceeded:
        out.Kind = OutcomeSucceeded
        out.ReceiptURL = latestReceiptURL(pi)
    case stripe.PaymentIntentStatusCanceled:
        out.Kind = OutcomeFailed
        out.Reason = "canceled"
    case stripe.PaymentIntentStatusRequiresPaymentMethod:
        // Stripe parks declined intents back in requires_payment_method
        // with the decline recorded on last_payment_error.
        if pi.LastPaymentError != nil {
            out.Kind = OutcomeFailed
            out.Reason = string(pi.LastPaymentError.Code)
        } else {
            out.Kind = OutcomePending
        }
    default:
        out.Kind = OutcomePending
    }
    return out, nil
}

// Refund returns the money for a succeeded intent.  A zero amount refunds
// the full charge.
func (p *StripeProcessor) Refund(ctx context.Context, intentID string, amount float64) (*RefundResult, error) {
    params := &stripe.RefundParams{
        PaymentIntent: stripe.String(intentID),
    }
    if amount > 0 {
        params.Amount = stripe.Int64(minorUnits(amount))
    }
    params.Context = ctx
    ref, err := p.api.Refunds.New(params)
    if err != nil {
        return nil, fmt.Errorf("stripe: refund: %w", err)
    }
    return &RefundResult{RefundID: ref.ID, Amount: float64(ref.Amount) / 100}, nil
}

// VerifyWebhook validates the Stripe-Signature header against the raw
// payload and reduces the event to the fields the reconciliation flow
// needs.  Unknown event types come back as EventIgnored so the route can
// acknowledge them without acting.
func (p *StripeProcessor) VerifyWebhook(payload []byte, signature string) (*Event, error) {
    ev, err := p.construct(payload, signature, p.webhookSecret)
    if err != nil {
        return nil, fmt.Errorf("stripe: verify webhook: %w", err)
    }
    switch ev.Type {
    case "payment_intent.succeeded", "payment_intent.payment_failed":
        var pi stripe.PaymentIntent
        if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
            return nil, fmt.Errorf("stripe: decode payment intent event: %w", err)
        }
        out := &Event{
            IntentID:   pi.ID,
            BookingID:  pi.Metadata["booking_id"],
            ReceiptURL: latestReceiptURL(&pi),
        }
        if ev.Type == "payment_intent.succeeded" {
            out.Type = EventPaymentSucceeded
        } else {
            out.Type = EventPaymentFailed
        }
        return out, nil
    case "charge.refunded":
        var ch stripe.Charge
        if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
            return nil, fmt.Errorf("stripe: decode charge event: %w", err)
        }
        out := &Event{
            Type:         EventRefunded,
            BookingID:    ch.Metadata["booking_id"],
            RefundAmount: float64(ch.AmountRefunded) / 100,
        }
        if ch.PaymentIntent != nil {
            out.IntentID = ch.PaymentIntent.ID
        }
        if ch.Refunds != nil && len(ch.Refunds.Data) > 0 {
            out.RefundID = ch.Refunds.Data[0].ID
        }
        return out, nil
    default:
        return &Event{Type: EventIgnored}, nil
    }
}

// latestReceiptURL digs the receipt URL out of the intent's latest charge,
// tolerating the sparsely-expanded objects webhook payloads carry.
func latestReceiptURL(pi *stripe.PaymentIntent) string {
    if pi.LatestCharge != nil {
        return pi.LatestCharge.ReceiptURL
    }
    return ""
}
