package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/payment"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// stubStore is a minimal in-memory BookingStore for handler tests.
type stubStore struct {
    mu       sync.Mutex
    bookings map[string]*model.Booking
}

func newStubStore(bs ...*model.Booking) *stubStore {
    s := &stubStore{bookings: make(map[string]*model.Booking)}
    for _, b := range bs {
        cp := *b
        s.bookings[b.ID] = &cp
    }
    return s
}

func (s *stubStore) Create(_ context.Context, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *b
    s.bookings[b.ID] = &cp
    return nil
}

func (s *stubStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *stubStore) GetByIntentID(_ context.Context, intentID string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, b := range s.bookings {
        if b.Payment.IntentID == intentID {
            cp := *b
            return &cp, nil
        }
    }
    return nil, repository.ErrBookingNotFound
}

func (s *stubStore) List(_ context.Context, limit, offset int) ([]model.Booking, error) {
    return nil, nil
}

func (s *stubStore) UpdatePayment(_ context.Context, id string, version uint64, p model.PaymentInfo, status model.BookingStatus) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return repository.ErrBookingNotFound
    }
    if b.Version != version {
        return repository.ErrVersionConflict
    }
    b.Payment = p
    if status != "" {
        b.Status = status
    }
    b.Version++
    return nil
}

func (s *stubStore) UpdateStatus(_ context.Context, id string, version uint64, status model.BookingStatus) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return repository.ErrBookingNotFound
    }
    if b.Version != version {
        return repository.ErrVersionConflict
    }
    b.Status = status
    b.Version++
    return nil
}

// countingProcessor wraps the mock processor and counts intent creations.
type countingProcessor struct {
    payment.Processor
    createCalls int
}

func (p *countingProcessor) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
    p.createCalls++
    return p.Processor.CreateIntent(ctx, req)
}

func testBooking(id string) *model.Booking {
    return &model.Booking{
        ID:         id,
        PropertyID: "prop-1",
        GuestName:  "Ada Lovelace",
        GuestEmail: "ada@example.com",
        Pricing:    model.Pricing{Total: 250.00, Currency: "usd"},
        Status:     model.BookingPending,
        Payment:    model.PaymentInfo{Status: model.PaymentPending},
        Version:    1,
    }
}

// doJSON runs one request through a fresh echo instance.
func doJSON(h echo.HandlerFunc, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
    e := echo.New()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    for k, v := range hdr {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if err := h(c); err != nil {
        e.HTTPErrorHandler(err, c)
    }
    return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var m map[string]interface{}
    if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
        t.Fatalf("decode response %q: %v", rec.Body.String(), err)
    }
    return m
}

func TestCreateIntentRejectsZeroAmount(t *testing.T) {
    proc := &countingProcessor{Processor: payment.NewMockProcessor(0)}
    svc := service.NewPaymentService(newStubStore(testBooking("b1")), proc, false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.CreateIntent, http.MethodPost, "/api/payment/create-intent",
        `{"bookingId":"b1","amount":0,"currency":"usd","customerEmail":"ada@example.com","customerName":"Ada"}`, nil)

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Amount must be greater than 0" {
        t.Errorf("error = %v, want amount message", msg)
    }
    if proc.createCalls != 0 {
        t.Errorf("processor contacted %d times, want 0", proc.createCalls)
    }
}

func TestCreateIntentUnknownBooking(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.CreateIntent, http.MethodPost, "/api/payment/create-intent",
        `{"bookingId":"ghost","amount":100,"currency":"usd","customerEmail":"a@b.c","customerName":"A"}`, nil)

    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
}

func TestCreateIntentNoProcessorConfigured(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(testBooking("b1")), nil, false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.CreateIntent, http.MethodPost, "/api/payment/create-intent",
        `{"bookingId":"b1","amount":100,"currency":"usd","customerEmail":"a@b.c","customerName":"A"}`, nil)

    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("status = %d, want 500", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Failed to create payment intent" {
        t.Errorf("error = %v, want generic message", msg)
    }
}

func TestCreateIntentSuccess(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(testBooking("b1")), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.CreateIntent, http.MethodPost, "/api/payment/create-intent",
        `{"bookingId":"b1","amount":250,"currency":"usd","customerEmail":"ada@example.com","customerName":"Ada"}`, nil)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
    }
    body := decodeBody(t, rec)
    id, _ := body["paymentIntentId"].(string)
    if !strings.HasPrefix(id, "pi_mock_") {
        t.Errorf("paymentIntentId = %q", id)
    }
    if body["clientSecret"] == "" {
        t.Error("expected a client secret")
    }
}

func TestConfirmRequiresIntentID(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.Confirm, http.MethodPost, "/api/payment/confirm", `{}`, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Missing payment intent ID" {
        t.Errorf("error = %v", msg)
    }
}

func TestGetIntentRequiresQueryParam(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.GetIntent, http.MethodGet, "/api/payment/confirm", "", nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Missing payment intent ID" {
        t.Errorf("error = %v", msg)
    }
}

func TestProcessMockFullFlow(t *testing.T) {
    store := newStubStore(testBooking("b1"))
    svc := service.NewPaymentService(store, payment.NewMockProcessor(0), true)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.ProcessMock, http.MethodPost, "/api/payment/process-mock",
        `{"bookingId":"b1","amount":250.00,"currency":"usd"}`, nil)

    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
    }
    body := decodeBody(t, rec)
    if body["success"] != true || body["status"] != "succeeded" {
        t.Errorf("body = %v", body)
    }
    if body["bookingId"] != "b1" || body["amount"] != 250.00 {
        t.Errorf("body = %v", body)
    }
    id, _ := body["paymentIntentId"].(string)
    if !payment.IsMockIntent(id) {
        t.Errorf("paymentIntentId = %q, want mock prefix", id)
    }

    b, _ := store.GetByID(context.Background(), "b1")
    if b.Payment.Status != model.PaymentCompleted || b.Status != model.BookingConfirmed {
        t.Errorf("booking = status %s / payment %s", b.Status, b.Payment.Status)
    }

    // A second attempt reports the completed payment.
    rec = doJSON(h.ProcessMock, http.MethodPost, "/api/payment/process-mock",
        `{"bookingId":"b1","amount":250.00,"currency":"usd"}`, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("repeat status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Payment already completed" {
        t.Errorf("error = %v", msg)
    }
}

func TestProcessMockDisabled(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(testBooking("b1")), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.ProcessMock, http.MethodPost, "/api/payment/process-mock",
        `{"bookingId":"b1","amount":250.00,"currency":"usd"}`, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Mock payments are disabled" {
        t.Errorf("error = %v", msg)
    }
}

func TestProcessMockUnknownBooking(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), true)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.ProcessMock, http.MethodPost, "/api/payment/process-mock",
        `{"bookingId":"ghost","amount":250.00,"currency":"usd"}`, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Booking not found" {
        t.Errorf("error = %v", msg)
    }
}

func TestWebhookMissingSignature(t *testing.T) {
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.Webhook, http.MethodPost, "/api/payment/webhook", `{"type":"payment_intent.succeeded"}`, nil)
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Missing signature" {
        t.Errorf("error = %v, want Missing signature", msg)
    }
}

func TestWebhookInvalidSignature(t *testing.T) {
    // The mock processor rejects all webhooks, standing in for a failed
    // signature check.
    svc := service.NewPaymentService(newStubStore(), payment.NewMockProcessor(0), false)
    h := NewPaymentHandler(svc)

    rec := doJSON(h.Webhook, http.MethodPost, "/api/payment/webhook", `{}`,
        map[string]string{"Stripe-Signature": "t=1,v1=bad"})
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    if msg := decodeBody(t, rec)["error"]; msg != "Invalid signature" {
        t.Errorf("error = %v", msg)
    }
}
