package payment

import (
    "context"
    "errors"
    "sync"
    "time"

    "github.com/google/uuid"
)

// mockIntentPrefix marks synthetic intent ids.  It is the only way
// downstream code can distinguish a mock completion from a real one.
const mockIntentPrefix = "pi_mock_"

// MockProcessor implements Processor without contacting any external
// service.  Every payment succeeds after a fixed simulated delay, which
// lets the booking flow run end to end in development and demo
// environments where no processor credentials exist.
type MockProcessor struct {
    delay time.Duration

    mu      sync.Mutex
    intents map[string]IntentRequest
}

// NewMockProcessor returns a mock that waits the given delay before
// reporting an intent as created.  A zero delay is allowed (tests).
func NewMockProcessor(delay time.Duration) *MockProcessor {
    return &MockProcessor{
        delay:   delay,
        intents: make(map[string]IntentRequest),
    }
}

// wait blocks for the simulated processing delay or until the context is
// cancelled.
func (p *MockProcessor) wait(ctx context.Context) error {
    if p.delay <= 0 {
        return ctx.Err()
    }
    t := time.NewTimer(p.delay)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}

// CreateIntent fabricates a unique synthetic intent.  Ids never collide:
// each carries a fresh UUID.
func (p *MockProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
    if err := p.wait(ctx); err != nil {
        return nil, err
    }
    id := mockIntentPrefix + uuid.NewString()
    p.mu.Lock()
    p.intents[id] = req
    p.mu.Unlock()
    return &Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

// CreateCheckoutSession fabricates a hosted-checkout URL pointing at the
// local payment page used in demo mode.
func (p *MockProcessor) CreateCheckoutSession(ctx context.Context, req IntentRequest) (*CheckoutSession, error) {
    intent, err := p.CreateIntent(ctx, req)
    if err != nil {
        return nil, err
    }
    return &CheckoutSession{
        ID:  "cs_mock_" + uuid.NewString(),
        URL: "https://checkout.mock.local/pay/" + intent.ID,
    }, nil
}

// GetIntent always reports success for a known intent, with a synthetic
// receipt URL, so the mock path applies the identical booking-mutation
// contract as a real confirmation.
func (p *MockProcessor) GetIntent(ctx context.Context, intentID string) (Outcome, error) {
    p.mu.Lock()
    req, ok := p.intents[intentID]
    p.mu.Unlock()
    if !ok {
        return Outcome{}, errors.New("mock: unknown intent " + intentID)
    }
    return Outcome{
        Kind:       OutcomeSucceeded,
        IntentID:   intentID,
        BookingID:  req.BookingID,
        ReceiptURL: ReceiptURL(intentID),
        Amount:     req.Amount,
        Currency:   req.Currency,
    }, nil
}

// Refund fabricates a refund for the full recorded amount.
func (p *MockProcessor) Refund(ctx context.Context, intentID string, amount float64) (*RefundResult, error) {
    p.mu.Lock()
    req, ok := p.intents[intentID]
    p.mu.Unlock()
    if !ok {
        return nil, errors.New("mock: unknown intent " + intentID)
    }
    if amount <= 0 {
        amount = req.Amount
    }
    return &RefundResult{RefundID: "re_mock_" + uuid.NewString(), Amount: amount}, nil
}

// VerifyWebhook rejects everything: the mock never delivers webhooks, so
// any webhook reaching a mock-configured deployment is unverifiable.
func (p *MockProcessor) VerifyWebhook(payload []byte, signature string) (*Event, error) {
    return nil, errors.New("mock: webhooks not supported")
}

// ReceiptURL builds the synthetic receipt location for a mock intent.
func ReceiptURL(intentID string) string {
    return "https://receipts.mock.local/" + intentID
}

// IsMockIntent reports whether an intent id was fabricated by the mock.
func IsMockIntent(id string) bool {
    return len(id) >= len(mockIntentPrefix) && id[:len(mockIntentPrefix)] == mockIntentPrefix
}
