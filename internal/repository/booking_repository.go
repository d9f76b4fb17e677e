package repository

import (
    "context"
    "database/sql"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  A booking row carries
// the reservation, its price snapshot and its payment sub-state in a single
// record, plus a version counter.  All mutating statements are
// compare-and-swap: they match on both id and version and bump the version,
// so two writers racing on the same booking cannot silently overwrite each
// other.  All timestamp fields are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, property_id, guest_name, guest_email, check_in, check_out, nights,
    adults, children, infants, total_guests,
    base_price, subtotal, cleaning_fee, service_fee, taxes, total, currency,
    status, payment_status, payment_intent_id, receipt_url, refund_id, refund_amount, processed_at,
    version, created_at, updated_at`

// Create inserts a new booking.  The caller supplies the ID (a UUID) and
// the repository queries the row back to populate timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    const q = `INSERT INTO bookings (id, property_id, guest_name, guest_email, check_in, check_out, nights,
        adults, children, infants, total_guests,
        base_price, subtotal, cleaning_fee, service_fee, taxes, total, currency,
        status, payment_status, version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`
    _, err := r.db.ExecContext(ctx, q,
        b.ID, b.PropertyID, b.GuestName, b.GuestEmail,
        b.CheckIn.UTC(), b.CheckOut.UTC(), b.Nights,
        b.Guests.Adults, b.Guests.Children, b.Guests.Infants, b.Guests.Total,
        b.Pricing.BasePrice, b.Pricing.Subtotal, b.Pricing.CleaningFee,
        b.Pricing.ServiceFee, b.Pricing.Taxes, b.Pricing.Total, b.Pricing.Currency,
        b.Status, b.Payment.Status,
    )
    if err != nil {
        return err
    }
    got, err := r.GetByID(ctx, b.ID)
    if err != nil {
        return err
    }
    *b = *got
    return nil
}

// GetByID returns the booking with the given id, or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
    return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

// GetByIntentID returns the booking whose payment references the given
// processor intent id, or ErrBookingNotFound.  The webhook path uses this
// when an event carries no booking metadata.
func (r *BookingRepo) GetByIntentID(ctx context.Context, intentID string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_intent_id = ? LIMIT 1`
    return r.scanOne(r.db.QueryRowContext(ctx, q, intentID))
}

// List returns bookings ordered by creation time descending (newest
// first) for the admin panel.  When no bookings exist, an empty slice is
// returned.
func (r *BookingRepo) List(ctx context.Context, limit, offset int) ([]model.Booking, error) {
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    if offset < 0 {
        offset = 0
    }
    const q = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows.Scan)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdatePayment overwrites the payment sub-state of a booking and, when a
// non-empty status is supplied, the booking status in the same statement.
// The write is guarded by the version the caller read: if the row has
// changed since, no rows match and ErrVersionConflict is returned.
func (r *BookingRepo) UpdatePayment(ctx context.Context, id string, version uint64, p model.PaymentInfo, status model.BookingStatus) error {
    var (
        q    string
        args []interface{}
    )
    var processedAt interface{}
    if p.ProcessedAt != nil {
        processedAt = p.ProcessedAt.UTC()
    }
    if status != "" {
        q = `UPDATE bookings SET payment_status=?, payment_intent_id=?, receipt_url=?, refund_id=?,
             refund_amount=?, processed_at=?, status=?, version=version+1, updated_at=UTC_TIMESTAMP()
             WHERE id=? AND version=?`
        args = []interface{}{p.Status, p.IntentID, p.ReceiptURL, p.RefundID, p.RefundAmount, processedAt, status, id, version}
    } else {
        q = `UPDATE bookings SET payment_status=?, payment_intent_id=?, receipt_url=?, refund_id=?,
             refund_amount=?, processed_at=?, version=version+1, updated_at=UTC_TIMESTAMP()
             WHERE id=? AND version=?`
        args = []interface{}{p.Status, p.IntentID, p.ReceiptURL, p.RefundID, p.RefundAmount, processedAt, id, version}
    }
    return r.execCAS(ctx, id, q, args...)
}

// UpdateStatus changes only the booking lifecycle status, guarded by the
// version the caller read.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, version uint64, status model.BookingStatus) error {
    const q = `UPDATE bookings SET status=?, version=version+1, updated_at=UTC_TIMESTAMP() WHERE id=? AND version=?`
    return r.execCAS(ctx, id, q, status, id, version)
}

// execCAS runs a guarded update and maps a zero-row result to either
// ErrBookingNotFound (row gone) or ErrVersionConflict (row moved on).
func (r *BookingRepo) execCAS(ctx context.Context, id, q string, args ...interface{}) error {
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists int
        if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id=?`, id).Scan(&exists); err != nil {
            if err == sql.ErrNoRows {
                return ErrBookingNotFound
            }
            return err
        }
        return ErrVersionConflict
    }
    return nil
}

func (r *BookingRepo) scanOne(row *sql.Row) (*model.Booking, error) {
    b, err := scanBooking(row.Scan)
    if err == sql.ErrNoRows {
        return nil, ErrBookingNotFound
    }
    return b, err
}

// scanBooking maps one bookings row to a model.Booking.  Nullable
// processor identifiers are scanned through sql.Null* wrappers.
func scanBooking(scan func(dest ...interface{}) error) (*model.Booking, error) {
    var (
        b           model.Booking
        intentID    sql.NullString
        receiptURL  sql.NullString
        refundID    sql.NullString
        refundAmt   sql.NullFloat64
        processedAt sql.NullTime
    )
    err := scan(
        &b.ID, &b.PropertyID, &b.GuestName, &b.GuestEmail, &b.CheckIn, &b.CheckOut, &b.Nights,
        &b.Guests.Adults, &b.Guests.Children, &b.Guests.Infants, &b.Guests.Total,
        &b.Pricing.BasePrice, &b.Pricing.Subtotal, &b.Pricing.CleaningFee,
        &b.Pricing.ServiceFee, &b.Pricing.Taxes, &b.Pricing.Total, &b.Pricing.Currency,
        &b.Status, &b.Payment.Status, &intentID, &receiptURL, &refundID, &refundAmt, &processedAt,
        &b.Version, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    b.Pricing.Nights = b.Nights
    if intentID.Valid {
        b.Payment.IntentID = intentID.String
    }
    if receiptURL.Valid {
        b.Payment.ReceiptURL = receiptURL.String
    }
    if refundID.Valid {
        b.Payment.RefundID = refundID.String
    }
    if refundAmt.Valid {
        b.Payment.RefundAmount = refundAmt.Float64
    }
    if processedAt.Valid {
        t := processedAt.Time.UTC()
        b.Payment.ProcessedAt = &t
    }
    return &b, nil
}
