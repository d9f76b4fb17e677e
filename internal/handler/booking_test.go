package handler

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

// stubProps is a minimal PropertyStore for handler tests.
type stubProps struct {
    props map[string]*model.Property
}

func newStubProps(ps ...*model.Property) *stubProps {
    s := &stubProps{props: make(map[string]*model.Property)}
    for _, p := range ps {
        cp := *p
        s.props[p.ID] = &cp
    }
    return s
}

func (s *stubProps) GetByID(_ context.Context, id string) (*model.Property, error) {
    p, ok := s.props[id]
    if !ok {
        return nil, repository.ErrPropertyNotFound
    }
    cp := *p
    return &cp, nil
}

func (s *stubProps) ListActive(_ context.Context) ([]model.Property, error) {
    out := make([]model.Property, 0, len(s.props))
    for _, p := range s.props {
        if p.IsActive {
            out = append(out, *p)
        }
    }
    return out, nil
}

func testProperty() *model.Property {
    return &model.Property{
        ID:             "prop-1",
        Title:          "Marina View Apartment",
        BasePrice:      100,
        CleaningFee:    50,
        ServiceFeeRate: 0.12,
        TaxRate:        0.05,
        Currency:       "usd",
        IsActive:       true,
    }
}

func newBookingHandler(store *stubStore, props *stubProps) *BookingHandler {
    return NewBookingHandler(service.NewBookingService(store, props))
}

func TestBookingCreate(t *testing.T) {
    store := newStubStore()
    h := newBookingHandler(store, newStubProps(testProperty()))

    rec := doJSON(h.Create, http.MethodPost, "/api/bookings",
        `{"propertyId":"prop-1","guestName":"Ada Lovelace","guestEmail":"ada@example.com",
          "checkIn":"2026-05-01T00:00:00Z","checkOut":"2026-05-04T00:00:00Z","adults":2}`, nil)

    if rec.Code != http.StatusCreated {
        t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
    }
    body := decodeBody(t, rec)
    if body["status"] != "pending" {
        t.Errorf("status = %v, want pending", body["status"])
    }
    pricing, _ := body["pricing"].(map[string]interface{})
    if pricing == nil || pricing["total"] != 405.30 {
        t.Errorf("pricing = %v, want total 405.30", pricing)
    }
}

func TestBookingCreateMissingField(t *testing.T) {
    h := newBookingHandler(newStubStore(), newStubProps(testProperty()))

    rec := doJSON(h.Create, http.MethodPost, "/api/bookings",
        `{"guestName":"Ada","guestEmail":"ada@example.com",
          "checkIn":"2026-05-01T00:00:00Z","checkOut":"2026-05-04T00:00:00Z","adults":2}`, nil)

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
    msg, _ := decodeBody(t, rec)["error"].(string)
    if !strings.Contains(msg, "propertyId") {
        t.Errorf("error = %q, want mention of propertyId", msg)
    }
}

func TestBookingCreateBadEmail(t *testing.T) {
    h := newBookingHandler(newStubStore(), newStubProps(testProperty()))

    rec := doJSON(h.Create, http.MethodPost, "/api/bookings",
        `{"propertyId":"prop-1","guestName":"Ada","guestEmail":"not-an-email",
          "checkIn":"2026-05-01T00:00:00Z","checkOut":"2026-05-04T00:00:00Z","adults":2}`, nil)

    if rec.Code != http.StatusBadRequest {
        t.Fatalf("status = %d, want 400", rec.Code)
    }
}

func TestBookingCreateUnknownProperty(t *testing.T) {
    h := newBookingHandler(newStubStore(), newStubProps())

    rec := doJSON(h.Create, http.MethodPost, "/api/bookings",
        `{"propertyId":"ghost","guestName":"Ada","guestEmail":"ada@example.com",
          "checkIn":"2026-05-01T00:00:00Z","checkOut":"2026-05-04T00:00:00Z","adults":2}`, nil)

    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
}

func TestBookingGet(t *testing.T) {
    store := newStubStore(testBooking("b1"))
    h := newBookingHandler(store, newStubProps())

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/bookings/b1", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("b1")
    if err := h.Get(c); err != nil {
        t.Fatalf("Get: %v", err)
    }
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, want 200", rec.Code)
    }
    if decodeBody(t, rec)["id"] != "b1" {
        t.Errorf("body = %s", rec.Body.String())
    }
}

func TestBookingGetNotFound(t *testing.T) {
    h := newBookingHandler(newStubStore(), newStubProps())

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/api/bookings/ghost", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("ghost")
    if err := h.Get(c); err != nil {
        t.Fatalf("Get: %v", err)
    }
    if rec.Code != http.StatusNotFound {
        t.Fatalf("status = %d, want 404", rec.Code)
    }
}
