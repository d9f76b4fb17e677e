// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrBookingNotFound is returned when no booking exists for the
// requested identifier or payment-intent reference.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPropertyNotFound is returned when no property exists for the
// requested identifier.
var ErrPropertyNotFound = errors.New("property not found")

// ErrVersionConflict is returned when a compare-and-swap update matched
// no rows because the booking's version changed between read and write.
// Callers should re-read the booking and decide whether the desired
// state is already in place.
var ErrVersionConflict = errors.New("version conflict")
