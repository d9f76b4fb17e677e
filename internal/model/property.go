package model

import "time"

// Property describes a rentable listing.  The booking/payment flow only
// reads properties: pricing fields seed the booking's price snapshot and
// IsActive gates whether new bookings may be created.  Mutation happens
// through the admin surface.
//
// Fields:
//  ID             – opaque identifier (UUID string).
//  Title          – display title of the listing.
//  BasePrice      – nightly rate in major currency units.
//  CleaningFee    – flat per-stay cleaning fee.
//  ServiceFeeRate – service fee as a fraction of the subtotal (e.g. 0.12).
//  TaxRate        – tax as a fraction of subtotal plus fees (e.g. 0.05).
//  Currency       – ISO 4217 currency code, lower case (e.g. "usd").
//  IsActive       – whether the listing accepts new bookings.
type Property struct {
    ID             string    `json:"id"`
    Title          string    `json:"title"`
    BasePrice      float64   `json:"base_price"`
    CleaningFee    float64   `json:"cleaning_fee"`
    ServiceFeeRate float64   `json:"service_fee_rate"`
    TaxRate        float64   `json:"tax_rate"`
    Currency       string    `json:"currency"`
    IsActive       bool      `json:"is_active"`
    CreatedAt      time.Time `json:"created_at"`
    UpdatedAt      time.Time `json:"updated_at"`
}
