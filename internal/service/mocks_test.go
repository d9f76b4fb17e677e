package service

import (
    "context"
    "errors"
    "sync"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/payment"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
)

// errMockProcessor is the default failure of the fake processor.
var errMockProcessor = errors.New("processor failure")

// memStore is an in-memory BookingStore with the same compare-and-swap
// semantics as the MySQL repository: updates carry the version the caller
// read, a mismatch is ErrVersionConflict, and every successful write bumps
// the version.
type memStore struct {
    mu       sync.Mutex
    bookings map[string]*model.Booking
}

func newMemStore(bs ...*model.Booking) *memStore {
    s := &memStore{bookings: make(map[string]*model.Booking)}
    for _, b := range bs {
        cp := *b
        s.bookings[b.ID] = &cp
    }
    return s
}

func (s *memStore) Create(_ context.Context, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *b
    s.bookings[b.ID] = &cp
    return nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[id]
    if !ok {
        return nil, repository.ErrBookingNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *memStore) GetByIntentID(_ context.Context, intentID string) (*model.Booking, error) {
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

func (s *memStore) List(_ context.Context, limit, offset int) ([]model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Booking, 0, len(s.bookings))
    for _, b := range s.bookings {
        out = append(out, *b)
    }
    return out, nil
}

func (s *memStore) UpdatePayment(_ context.Context, id string, version uint64, p model.PaymentInfo, status model.BookingStatus) error {
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

func (s *memStore) UpdateStatus(_ context.Context, id string, version uint64, status model.BookingStatus) error {
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

// bumpVersion simulates a concurrent writer touching the booking between a
// read and the following CAS update.
func (s *memStore) bumpVersion(id string) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if b, ok := s.bookings[id]; ok {
        b.Version++
    }
}

// memProps is an in-memory PropertyStore.
type memProps struct {
    props map[string]*model.Property
}

func newMemProps(ps ...*model.Property) *memProps {
    s := &memProps{props: make(map[string]*model.Property)}
    for _, p := range ps {
        cp := *p
        s.props[p.ID] = &cp
    }
    return s
}

func (s *memProps) GetByID(_ context.Context, id string) (*model.Property, error) {
    p, ok := s.props[id]
    if !ok {
        return nil, repository.ErrPropertyNotFound
    }
    cp := *p
    return &cp, nil
}

func (s *memProps) ListActive(_ context.Context) ([]model.Property, error) {
    out := make([]model.Property, 0, len(s.props))
    for _, p := range s.props {
        if p.IsActive {
            out = append(out, *p)
        }
    }
    return out, nil
}

// fakeProcessor implements payment.Processor through swappable func fields
// and counts calls so tests can assert the processor was never contacted.
type fakeProcessor struct {
    CreateIntentFunc  func(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error)
    GetIntentFunc     func(ctx context.Context, intentID string) (payment.Outcome, error)
    RefundFunc        func(ctx context.Context, intentID string, amount float64) (*payment.RefundResult, error)
    VerifyWebhookFunc func(payload []byte, signature string) (*payment.Event, error)

    createCalls int
    getCalls    int
}

func (f *fakeProcessor) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
    f.createCalls++
    if f.CreateIntentFunc != nil {
        return f.CreateIntentFunc(ctx, req)
    }
    return &payment.Intent{ID: "pi_fake", ClientSecret: "pi_fake_secret"}, nil
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, req payment.IntentRequest) (*payment.CheckoutSession, error) {
    f.createCalls++
    return &payment.CheckoutSession{ID: "cs_fake", URL: "https://checkout.fake/cs_fake"}, nil
}

func (f *fakeProcessor) GetIntent(ctx context.Context, intentID string) (payment.Outcome, error) {
    f.getCalls++
    if f.GetIntentFunc != nil {
        return f.GetIntentFunc(ctx, intentID)
    }
    return payment.Outcome{}, errMockProcessor
}

func (f *fakeProcessor) Refund(ctx context.Context, intentID string, amount float64) (*payment.RefundResult, error) {
    if f.RefundFunc != nil {
        return f.RefundFunc(ctx, intentID, amount)
    }
    return nil, errMockProcessor
}

func (f *fakeProcessor) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
    if f.VerifyWebhookFunc != nil {
        return f.VerifyWebhookFunc(payload, signature)
    }
    return nil, errMockProcessor
}
