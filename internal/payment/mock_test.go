package payment

import (
    "context"
    "strings"
    "testing"
)

func TestMockCreateIntentDistinctIDs(t *testing.T) {
    p := NewMockProcessor(0)
    ctx := context.Background()

    seen := make(map[string]bool)
    for i := 0; i < 10; i++ {
        intent, err := p.CreateIntent(ctx, IntentRequest{BookingID: "b1", Amount: 100, Currency: "usd"})
        if err != nil {
            t.Fatalf("CreateIntent: %v", err)
        }
        if !strings.HasPrefix(intent.ID, "pi_mock_") {
            t.Fatalf("intent id %q missing mock prefix", intent.ID)
        }
        if seen[intent.ID] {
            t.Fatalf("duplicate intent id %q", intent.ID)
        }
        seen[intent.ID] = true
    }
}

func TestMockGetIntentReportsSuccess(t *testing.T) {
    p := NewMockProcessor(0)
    ctx := context.Background()

    intent, err := p.CreateIntent(ctx, IntentRequest{BookingID: "b1", Amount: 250, Currency: "usd"})
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    out, err := p.GetIntent(ctx, intent.ID)
    if err != nil {
        t.Fatalf("GetIntent: %v", err)
    }
    if out.Kind != OutcomeSucceeded {
        t.Errorf("kind = %v, want succeeded", out.Kind)
    }
    if out.BookingID != "b1" {
        t.Errorf("booking id = %q, want b1", out.BookingID)
    }
    if out.Amount != 250 {
        t.Errorf("amount = %v, want 250", out.Amount)
    }
    if out.ReceiptURL == "" {
        t.Error("expected a synthetic receipt URL")
    }
}

func TestMockGetIntentUnknown(t *testing.T) {
    p := NewMockProcessor(0)
    if _, err := p.GetIntent(context.Background(), "pi_mock_nope"); err == nil {
        t.Error("expected error for unknown intent")
    }
}

func TestMockRefundDefaultsToFullAmount(t *testing.T) {
    p := NewMockProcessor(0)
    ctx := context.Background()

    intent, err := p.CreateIntent(ctx, IntentRequest{BookingID: "b1", Amount: 99.50, Currency: "usd"})
    if err != nil {
        t.Fatalf("CreateIntent: %v", err)
    }
    res, err := p.Refund(ctx, intent.ID, 0)
    if err != nil {
        t.Fatalf("Refund: %v", err)
    }
    if res.Amount != 99.50 {
        t.Errorf("refund amount = %v, want 99.50", res.Amount)
    }
    if !strings.HasPrefix(res.RefundID, "re_mock_") {
        t.Errorf("refund id %q missing mock prefix", res.RefundID)
    }
}

func TestMockVerifyWebhookRejects(t *testing.T) {
    p := NewMockProcessor(0)
    if _, err := p.VerifyWebhook([]byte("{}"), "sig"); err == nil {
        t.Error("mock must reject webhooks")
    }
}

func TestIsMockIntent(t *testing.T) {
    if !IsMockIntent("pi_mock_abc") {
        t.Error("pi_mock_abc should be a mock intent")
    }
    if IsMockIntent("pi_3abc") {
        t.Error("pi_3abc should not be a mock intent")
    }
}
