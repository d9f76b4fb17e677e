package router

import (
    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/syedhammad74/expatstays-booking-api/internal/config"
    "github.com/syedhammad74/expatstays-booking-api/internal/handler"
    "github.com/syedhammad74/expatstays-booking-api/internal/middleware"
)

// RegisterRoutes registers the unauthenticated infrastructure endpoints:
// the health check used by load balancers and the Prometheus scrape
// endpoint.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the staff auth routes.  Login, refresh and
// single-session logout are open (they authenticate by the refresh token
// itself); me and logout-all need a valid access token, and register
// additionally requires an admin session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/api/auth")
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    auth := e.Group("/api/auth")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    auth.POST("/logout-all", a.LogoutAll)
    auth.POST("/register", a.Register, middleware.RequireRole("ADMIN"))
}

// RegisterPublic registers the guest-facing routes.  Property browsing
// sits behind the Redis response cache; booking creation and the whole
// payment surface sit behind the token-bucket rate limiter so a
// misbehaving client cannot hammer the processor.
func RegisterPublic(e *echo.Echo, bh *handler.BookingHandler, ph *handler.PropertyHandler, pay *handler.PaymentHandler,
    rdb *redis.Client, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) {

    cache := middleware.NewRedisCache(cacheCfg, rdb)
    limit := middleware.NewTokenBucket(rlCfg, rdb)

    e.GET("/api/properties", ph.List, cache)
    e.GET("/api/properties/:id", ph.Get, cache)

    e.POST("/api/bookings", bh.Create, limit)
    e.GET("/api/bookings/:id", bh.Get)

    p := e.Group("/api/payment", limit)
    p.POST("/create-intent", pay.CreateIntent)
    p.POST("/checkout-session", pay.CreateCheckoutSession)
    p.POST("/confirm", pay.Confirm)
    p.GET("/confirm", pay.GetIntent)
    p.POST("/process-mock", pay.ProcessMock)
    // The webhook is authenticated by its signature, not by JWT, and is
    // never rate limited: dropping a processor delivery only delays
    // reconciliation until the redelivery.
    e.POST("/api/payment/webhook", pay.Webhook)
}

// RegisterAdmin registers the staff-only oversight routes behind JWT auth
// plus an ADMIN role check.
func RegisterAdmin(e *echo.Echo, ah *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/api/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("ADMIN"))

    g.GET("/bookings", ah.ListBookings)
    g.PATCH("/bookings/:id/status", ah.UpdateBookingStatus)
    g.PATCH("/bookings/:id/payment", ah.UpdateBookingPayment)
    g.POST("/bookings/:id/refund", ah.RefundBooking)

    g.PATCH("/properties/:id/pricing", ah.UpdatePropertyPricing)
    g.PATCH("/properties/:id/availability", ah.SetPropertyActive)
}
