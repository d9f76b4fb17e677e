package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/syedhammad74/expatstays-booking-api/internal/metrics"
    "github.com/syedhammad74/expatstays-booking-api/internal/model"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
)

// CreateBookingInput carries everything a guest submits to reserve a
// property.  Pricing is never taken from the client; the snapshot is
// computed from the property's current rates.
type CreateBookingInput struct {
    PropertyID string    `json:"propertyId" validate:"required"`
    GuestName  string    `json:"guestName" validate:"required"`
    GuestEmail string    `json:"guestEmail" validate:"required,email"`
    CheckIn    time.Time `json:"checkIn" validate:"required"`
    CheckOut   time.Time `json:"checkOut" validate:"required"`
    Adults     int       `json:"adults" validate:"min=0"`
    Children   int       `json:"children" validate:"min=0"`
    Infants    int       `json:"infants" validate:"min=0"`
}

// PaymentPatch is a partial update of a booking's payment sub-state: only
// non-nil fields change.
type PaymentPatch struct {
    Status       *model.PaymentStatus `json:"status,omitempty"`
    IntentID     *string              `json:"payment_intent_id,omitempty"`
    ReceiptURL   *string              `json:"receipt_url,omitempty"`
    RefundID     *string              `json:"refund_id,omitempty"`
    RefundAmount *float64             `json:"refund_amount,omitempty"`
}

// BookingService reads and updates booking records.  It owns field
// validation and the pricing snapshot; payment-driven state transitions
// live in PaymentService.
type BookingService struct {
    bookings   BookingStore
    properties PropertyStore
    now        func() time.Time
}

// NewBookingService wires the service.
func NewBookingService(bookings BookingStore, properties PropertyStore) *BookingService {
    return &BookingService{
        bookings:   bookings,
        properties: properties,
        now:        func() time.Time { return time.Now().UTC() },
    }
}

// CreateBooking validates the request, snapshots pricing from the property
// and persists a pending booking awaiting payment.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
    if strings.TrimSpace(in.GuestName) == "" {
        return nil, NewValidationError("Missing required field: guestName")
    }
    if strings.TrimSpace(in.GuestEmail) == "" {
        return nil, NewValidationError("Missing required field: guestEmail")
    }
    if !in.CheckOut.After(in.CheckIn) {
        return nil, NewValidationError("Check-out must be after check-in")
    }
    nights := model.NightsBetween(in.CheckIn, in.CheckOut)
    if nights < 1 {
        return nil, NewValidationError("Stay must be at least one night")
    }
    guests := model.Guests{
        Adults:   in.Adults,
        Children: in.Children,
        Infants:  in.Infants,
        Total:    in.Adults + in.Children + in.Infants,
    }
    if !guests.Validate() {
        return nil, NewValidationError("At least one guest is required")
    }

    prop, err := s.properties.GetByID(ctx, in.PropertyID)
    if err != nil {
        return nil, err
    }
    if !prop.IsActive {
        return nil, NewValidationError("Property is not available for booking")
    }

    b := &model.Booking{
        ID:         uuid.NewString(),
        PropertyID: prop.ID,
        GuestName:  strings.TrimSpace(in.GuestName),
        GuestEmail: strings.ToLower(strings.TrimSpace(in.GuestEmail)),
        CheckIn:    in.CheckIn.UTC(),
        CheckOut:   in.CheckOut.UTC(),
        Nights:     nights,
        Guests:     guests,
        Pricing:    model.ComputePricing(prop.BasePrice, nights, prop.CleaningFee, prop.ServiceFeeRate, prop.TaxRate, prop.Currency),
        Status:     model.BookingPending,
        Payment:    model.PaymentInfo{Status: model.PaymentPending},
    }
    if err := s.bookings.Create(ctx, b); err != nil {
        return nil, err
    }
    metrics.IncBookingCreated()
    return b, nil
}

// GetBookingByID returns a booking or repository.ErrBookingNotFound.
func (s *BookingService) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
    if id == "" {
        return nil, NewValidationError("Missing booking ID")
    }
    return s.bookings.GetByID(ctx, id)
}

// ListBookings returns bookings for the admin panel, newest first.
func (s *BookingService) ListBookings(ctx context.Context, limit, offset int) ([]model.Booking, error) {
    return s.bookings.List(ctx, limit, offset)
}

// UpdateBookingStatus changes the reservation lifecycle state.  A booking
// may only be confirmed once its payment has completed.  The update is
// retried once on a version conflict.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
    if !status.Valid() {
        return nil, NewValidationError("Invalid booking status")
    }
    for attempt := 0; attempt < 2; attempt++ {
        b, err := s.bookings.GetByID(ctx, id)
        if err != nil {
            return nil, err
        }
        if b.Status == status {
            return b, nil
        }
        if status == model.BookingConfirmed && b.Payment.Status != model.PaymentCompleted {
            return nil, NewValidationError("Booking cannot be confirmed before payment completes")
        }
        err = s.bookings.UpdateStatus(ctx, id, b.Version, status)
        if err == nil {
            return s.bookings.GetByID(ctx, id)
        }
        if !errors.Is(err, repository.ErrVersionConflict) {
            return nil, err
        }
    }
    return nil, repository.ErrVersionConflict
}

// UpdateBookingPayment applies a partial update to the payment sub-state.
// Only supplied fields change, and a status change must be a legal state
// machine transition.
func (s *BookingService) UpdateBookingPayment(ctx context.Context, id string, patch PaymentPatch) (*model.Booking, error) {
    for attempt := 0; attempt < 2; attempt++ {
        b, err := s.bookings.GetByID(ctx, id)
        if err != nil {
            return nil, err
        }
        p := b.Payment
        if patch.Status != nil && *patch.Status != p.Status {
            if !patch.Status.Valid() {
                return nil, NewValidationError("Invalid payment status")
            }
            if !p.Status.CanTransition(*patch.Status) {
                return nil, NewValidationError("Payment cannot move from " + string(p.Status) + " to " + string(*patch.Status))
            }
            p.Status = *patch.Status
            now := s.now()
            p.ProcessedAt = &now
        }
        if patch.IntentID != nil {
            p.IntentID = *patch.IntentID
        }
        if patch.ReceiptURL != nil {
            p.ReceiptURL = *patch.ReceiptURL
        }
        if patch.RefundID != nil {
            p.RefundID = *patch.RefundID
        }
        if patch.RefundAmount != nil {
            p.RefundAmount = *patch.RefundAmount
        }
        err = s.bookings.UpdatePayment(ctx, id, b.Version, p, "")
        if err == nil {
            return s.bookings.GetByID(ctx, id)
        }
        if !errors.Is(err, repository.ErrVersionConflict) {
            return nil, err
        }
    }
    return nil, repository.ErrVersionConflict
}
