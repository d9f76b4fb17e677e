package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    bookingCreated = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "expatstays",
            Name:      "booking_created_total",
            Help:      "Count of bookings created.",
        },
    )

    paymentProcessed = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "expatstays",
            Name:      "payment_processed_total",
            Help:      "Count of payment outcomes applied to bookings.",
        },
        []string{"status"},
    )

    webhookReceived = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "expatstays",
            Name:      "webhook_received_total",
            Help:      "Count of processor webhook events by result.",
        },
        []string{"result"},
    )
)

// Register registers metrics (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(bookingCreated, paymentProcessed, webhookReceived)
    })
}

func IncBookingCreated() {
    bookingCreated.Inc()
}

func IncPaymentProcessed(status string) {
    paymentProcessed.WithLabelValues(status).Inc()
}

func IncWebhookReceived(result string) {
    webhookReceived.WithLabelValues(result).Inc()
}
