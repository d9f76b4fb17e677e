package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings normalizes flag values

    "github.com/joho/godotenv" // godotenv loads a local .env file when present
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, bools for mode flags.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing

    StripeSecretKey     string // processor secret key; empty disables the real processor
    StripeWebhookSecret string // webhook signing secret; empty disables webhook verification
    CheckoutSuccessURL  string // where hosted checkout sends the guest on success
    CheckoutCancelURL   string // where hosted checkout sends the guest on cancel
    MockPayments        bool   // USE_MOCK_DATA or SKIP_STRIPE_PAYMENT enables the mock path
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file is loaded first when one exists (best effort).
// Required variables are enforced by must() and missing values cause the
// program to exit with a fatal log message.  Payment-processor variables
// are deliberately optional: their absence only logs a warning and the
// service degrades to mock-or-refuse behavior on payment routes.
func Load() Config {
    _ = godotenv.Load() // ignore error; env vars may come from the environment itself

    cfg := Config{
        Env:            must("APP_ENV"),      // environment (dev/test/prod)
        Port:           must("APP_PORT"),     // port to bind the HTTP server
        DBUser:         must("DB_USER"),      // database user
        DBPass:         os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:         must("DB_HOST"),      // database host
        DBPort:         must("DB_PORT"),      // database port
        DBName:         must("DB_NAME"),      // database name
        JWTSecret:      must("JWT_SECRET"),   // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),

        StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
        StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
        CheckoutSuccessURL:  envOr("CHECKOUT_SUCCESS_URL", "https://expatstays.com/booking/success"),
        CheckoutCancelURL:   envOr("CHECKOUT_CANCEL_URL", "https://expatstays.com/booking/cancel"),
        MockPayments:        flag("USE_MOCK_DATA") || flag("SKIP_STRIPE_PAYMENT"),
    }

    if cfg.StripeSecretKey == "" && !cfg.MockPayments {
        log.Println("warning: STRIPE_SECRET_KEY not set and mock mode off; payment routes will refuse requests")
    }
    if cfg.StripeSecretKey != "" && cfg.StripeWebhookSecret == "" {
        log.Println("warning: STRIPE_WEBHOOK_SECRET not set; webhook verification will reject all events")
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// envOr returns the variable's value or a default when unset.
func envOr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// flag interprets common truthy spellings of a boolean environment variable.
func flag(key string) bool {
    switch strings.ToLower(os.Getenv(key)) {
    case "1", "true", "yes", "on":
        return true
    }
    return false
}
