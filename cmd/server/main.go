package main

import (
    "log"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/syedhammad74/expatstays-booking-api/internal/config"
    "github.com/syedhammad74/expatstays-booking-api/internal/database"
    "github.com/syedhammad74/expatstays-booking-api/internal/handler"
    "github.com/syedhammad74/expatstays-booking-api/internal/metrics"
    "github.com/syedhammad74/expatstays-booking-api/internal/payment"
    "github.com/syedhammad74/expatstays-booking-api/internal/queue"
    "github.com/syedhammad74/expatstays-booking-api/internal/repository"
    "github.com/syedhammad74/expatstays-booking-api/internal/router"
    "github.com/syedhammad74/expatstays-booking-api/internal/service"
)

func main() {
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    bookingRepo := repository.NewBookingRepo(db)
    propertyRepo := repository.NewPropertyRepo(db)
    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)

    // Redis backs the rate limiter and the property-browse response cache.
    // A nil client disables both; the API itself keeps working.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("warning: redis unavailable; rate limiting and caching disabled")
    }
    cacheCfg := config.LoadCacheConfig()
    rlCfg := config.LoadRateLimitConfig()

    // Pick the payment processor once, here.  Nothing downstream branches
    // on mock-mode flags: the services only see the Processor interface.
    var proc payment.Processor
    switch {
    case cfg.MockPayments:
        proc = payment.NewMockProcessor(500 * time.Millisecond)
        log.Println("payments: mock processor enabled")
    case cfg.StripeSecretKey != "":
        proc = payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret,
            cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
    default:
        // proc stays nil; payment routes answer with a configuration error.
    }

    bookingSvc := service.NewBookingService(bookingRepo, propertyRepo)
    paymentSvc := service.NewPaymentService(bookingRepo, proc, cfg.MockPayments)

    metrics.Register()

    // The consumer drains payment.completed events into the audit log.  It
    // reconnects on its own; a missing broker must not block startup.
    go func() {
        if err := queue.StartPaymentConsumer(); err != nil {
            log.Printf("queue: consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
    router.RegisterPublic(e,
        handler.NewBookingHandler(bookingSvc),
        handler.NewPropertyHandler(propertyRepo),
        handler.NewPaymentHandler(paymentSvc),
        rdb, cacheCfg, rlCfg)
    router.RegisterAdmin(e, handler.NewAdminHandler(bookingSvc, paymentSvc, propertyRepo), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
