package repository

import (
    "context"
    "database/sql"

    "github.com/syedhammad74/expatstays-booking-api/internal/model"
)

// PropertyRepo provides read access to property listings and the pricing
// and availability mutations exposed through the admin panel.  The
// booking/payment flow itself only reads properties.
type PropertyRepo struct {
    db *sql.DB
}

// NewPropertyRepo returns a new PropertyRepo bound to the given database.
func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

const propertyColumns = `id, title, base_price, cleaning_fee, service_fee_rate, tax_rate, currency, is_active, created_at, updated_at`

// GetByID returns the property with the given id, or ErrPropertyNotFound.
func (r *PropertyRepo) GetByID(ctx context.Context, id string) (*model.Property, error) {
    const q = `SELECT ` + propertyColumns + ` FROM properties WHERE id = ?`
    var p model.Property
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &p.ID, &p.Title, &p.BasePrice, &p.CleaningFee, &p.ServiceFeeRate,
        &p.TaxRate, &p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrPropertyNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// ListActive returns all properties currently accepting bookings, ordered
// by title for deterministic output.
func (r *PropertyRepo) ListActive(ctx context.Context) ([]model.Property, error) {
    const q = `SELECT ` + propertyColumns + ` FROM properties WHERE is_active = 1 ORDER BY title`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Property, 0)
    for rows.Next() {
        var p model.Property
        if err := rows.Scan(
            &p.ID, &p.Title, &p.BasePrice, &p.CleaningFee, &p.ServiceFeeRate,
            &p.TaxRate, &p.Currency, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdatePricing overwrites a property's rate fields.  Admin-only.
func (r *PropertyRepo) UpdatePricing(ctx context.Context, id string, basePrice, cleaningFee, serviceFeeRate, taxRate float64) error {
    const q = `UPDATE properties SET base_price=?, cleaning_fee=?, service_fee_rate=?, tax_rate=?, updated_at=UTC_TIMESTAMP() WHERE id=?`
    res, err := r.db.ExecContext(ctx, q, basePrice, cleaningFee, serviceFeeRate, taxRate, id)
    if err != nil {
        return err
    }
    return r.mapZeroRows(ctx, res, id)
}

// SetActive toggles whether a property accepts new bookings.  Admin-only.
func (r *PropertyRepo) SetActive(ctx context.Context, id string, active bool) error {
    const q = `UPDATE properties SET is_active=?, updated_at=UTC_TIMESTAMP() WHERE id=?`
    res, err := r.db.ExecContext(ctx, q, active, id)
    if err != nil {
        return err
    }
    return r.mapZeroRows(ctx, res, id)
}

// mapZeroRows resolves a zero-row update.  MySQL reports zero affected
// rows both when the id matched nothing and when the update changed no
// column values, so the id is probed before answering not found.
func (r *PropertyRepo) mapZeroRows(ctx context.Context, res sql.Result, id string) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    var exists int
    if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM properties WHERE id=?`, id).Scan(&exists); err != nil {
        if err == sql.ErrNoRows {
            return ErrPropertyNotFound
        }
        return err
    }
    return nil
}
