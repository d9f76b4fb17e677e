package middleware

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth guards the staff surface: the admin oversight routes, session
// introspection and account registration.  It validates the Bearer access
// token against the signing secret and stores normalized identity claims
// in the context, so downstream code reads c.Get("user_id") as a uint64
// and c.Get("role") as a string ("ADMIN" or "STAFF").
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Only HMAC signatures are accepted; access tokens are minted
            // with HS256 and the shared secret.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            uid := subjectID(claims["sub"])
            role, _ := claims["role"].(string)
            if uid == 0 || role == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            c.Set("user_id", uid)
            c.Set("role", role)
            return next(c)
        }
    }
}

// subjectID normalizes the sub claim.  JSON decoding hands numeric claims
// over as float64; string subjects are parsed for tolerance.
func subjectID(v interface{}) uint64 {
    switch s := v.(type) {
    case float64:
        if s > 0 {
            return uint64(s)
        }
    case string:
        if n, err := strconv.ParseUint(s, 10, 64); err == nil {
            return n
        }
    }
    return 0
}
