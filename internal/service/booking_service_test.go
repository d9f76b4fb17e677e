package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
)

func activeProperty() *model.Property {
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

func validInput() CreateBookingInput {
    return CreateBookingInput{
        PropertyID: "prop-1",
        GuestName:  "Ada Lovelace",
        GuestEmail: "Ada@Example.com",
        CheckIn:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
        CheckOut:   time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
        Adults:     2,
    }
}

func TestCreateBooking(t *testing.T) {
    store := newMemStore()
    svc := NewBookingService(store, newMemProps(activeProperty()))
    ctx := context.Background()

    b, err := svc.CreateBooking(ctx, validInput())
    if err != nil {
        t.Fatalf("CreateBooking: %v", err)
    }
    if b.ID == "" {
        t.Error("expected a generated booking id")
    }
    if b.Status != model.BookingPending || b.Payment.Status != model.PaymentPending {
        t.Errorf("new booking = status %s / payment %s, want pending/pending", b.Status, b.Payment.Status)
    }
    if b.Nights != 3 {
        t.Errorf("nights = %d, want 3", b.Nights)
    }
    if b.GuestEmail != "ada@example.com" {
        t.Errorf("email = %q, want lower-cased", b.GuestEmail)
    }
    // 3x100 + 50 cleaning + 36 service + 19.30 tax
    if b.Pricing.Total != 405.30 {
        t.Errorf("total = %v, want 405.30", b.Pricing.Total)
    }
    if b.Guests.Total != 2 {
        t.Errorf("guest total = %d, want 2", b.Guests.Total)
    }
}

func TestCreateBookingValidation(t *testing.T) {
    svc := NewBookingService(newMemStore(), newMemProps(activeProperty()))
    ctx := context.Background()

    cases := []struct {
        name   string
        mutate func(*CreateBookingInput)
        want   string
    }{
        {"missing name", func(in *CreateBookingInput) { in.GuestName = "  " }, "Missing required field: guestName"},
        {"missing email", func(in *CreateBookingInput) { in.GuestEmail = "" }, "Missing required field: guestEmail"},
        {"reversed dates", func(in *CreateBookingInput) { in.CheckIn, in.CheckOut = in.CheckOut, in.CheckIn }, "Check-out must be after check-in"},
        {"zero guests", func(in *CreateBookingInput) { in.Adults = 0 }, "At least one guest is required"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            in := validInput()
            tc.mutate(&in)
            _, err := svc.CreateBooking(ctx, in)
            if !IsValidationError(err) {
                t.Fatalf("err = %v, want validation error", err)
            }
            if err.Error() != tc.want {
                t.Errorf("message = %q, want %q", err.Error(), tc.want)
            }
        })
    }
}

func TestCreateBookingSameDayStay(t *testing.T) {
    svc := NewBookingService(newMemStore(), newMemProps(activeProperty()))
    in := validInput()
    in.CheckIn = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
    in.CheckOut = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
    _, err := svc.CreateBooking(context.Background(), in)
    if !IsValidationError(err) {
        t.Fatalf("err = %v, want validation error", err)
    }
}

func TestCreateBookingInactiveProperty(t *testing.T) {
    prop := activeProperty()
    prop.IsActive = false
    svc := NewBookingService(newMemStore(), newMemProps(prop))

    _, err := svc.CreateBooking(context.Background(), validInput())
    if !IsValidationError(err) || err.Error() != "Property is not available for booking" {
        t.Errorf("err = %v, want availability validation error", err)
    }
}

func TestCreateBookingUnknownProperty(t *testing.T) {
    svc := NewBookingService(newMemStore(), newMemProps())
    _, err := svc.CreateBooking(context.Background(), validInput())
    if !errors.Is(err, repository.ErrPropertyNotFound) {
        t.Errorf("err = %v, want ErrPropertyNotFound", err)
    }
}

func TestUpdateBookingStatusGuardsConfirmation(t *testing.T) {
    b := &model.Booking{
        ID: "b1", Status: model.BookingPending,
        Payment: model.PaymentInfo{Status: model.PaymentPending},
        Version: 1,
    }
    svc := NewBookingService(newMemStore(b), newMemProps())
    ctx := context.Background()

    _, err := svc.UpdateBookingStatus(ctx, "b1", model.BookingConfirmed)
    if !IsValidationError(err) {
        t.Fatalf("err = %v, want validation error before payment completes", err)
    }

    // Cancelling a pending booking is always allowed.
    got, err := svc.UpdateBookingStatus(ctx, "b1", model.BookingCancelled)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if got.Status != model.BookingCancelled {
        t.Errorf("status = %s, want cancelled", got.Status)
    }
}

func TestUpdateBookingStatusConfirmAfterPayment(t *testing.T) {
    b := &model.Booking{
        ID: "b1", Status: model.BookingPending,
        Payment: model.PaymentInfo{Status: model.PaymentCompleted},
        Version: 3,
    }
    svc := NewBookingService(newMemStore(b), newMemProps())

    got, err := svc.UpdateBookingStatus(context.Background(), "b1", model.BookingConfirmed)
    if err != nil {
        t.Fatalf("confirm: %v", err)
    }
    if got.Status != model.BookingConfirmed {
        t.Errorf("status = %s, want confirmed", got.Status)
    }
    if got.Version != 4 {
        t.Errorf("version = %d, want 4", got.Version)
    }
}

func TestUpdateBookingStatusInvalid(t *testing.T) {
    svc := NewBookingService(newMemStore(), newMemProps())
    _, err := svc.UpdateBookingStatus(context.Background(), "b1", "teleported")
    if !IsValidationError(err) {
        t.Errorf("err = %v, want validation error", err)
    }
}

func TestUpdateBookingPaymentPatch(t *testing.T) {
    b := &model.Booking{
        ID: "b1", Status: model.BookingPending,
        Payment: model.PaymentInfo{Status: model.PaymentPending},
        Version: 1,
    }
    svc := NewBookingService(newMemStore(b), newMemProps())
    ctx := context.Background()

    intent := "pi_7"
    got, err := svc.UpdateBookingPayment(ctx, "b1", PaymentPatch{IntentID: &intent})
    if err != nil {
        t.Fatalf("patch intent: %v", err)
    }
    if got.Payment.IntentID != "pi_7" {
        t.Errorf("intent id = %q, want pi_7", got.Payment.IntentID)
    }
    if got.Payment.Status != model.PaymentPending {
        t.Errorf("status = %s, patch without status must not change it", got.Payment.Status)
    }

    // Illegal transition is rejected.
    refunded := model.PaymentRefunded
    if _, err := svc.UpdateBookingPayment(ctx, "b1", PaymentPatch{Status: &refunded}); !IsValidationError(err) {
        t.Errorf("err = %v, want validation error for pending -> refunded", err)
    }

    // Legal transition moves the state and stamps ProcessedAt.
    completed := model.PaymentCompleted
    got, err = svc.UpdateBookingPayment(ctx, "b1", PaymentPatch{Status: &completed})
    if err != nil {
        t.Fatalf("patch status: %v", err)
    }
    if got.Payment.Status != model.PaymentCompleted || got.Payment.ProcessedAt == nil {
        t.Errorf("payment = %+v, want completed with ProcessedAt set", got.Payment)
    }
}
