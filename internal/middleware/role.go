package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole restricts a route to the given staff roles, matched against
// the role claim JWTAuth stored in the context.  It must run after
// JWTAuth; a missing or unlisted role is a 403.  The admin oversight
// routes use RequireRole("ADMIN"), leaving STAFF accounts with read-only
// session endpoints.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
