package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health answers liveness probes with a bare 200 "ok".  It reports only
// that the process is serving; dependency health (MySQL, Redis, the
// broker) surfaces through /metrics instead of failing the probe, so a
// degraded cache does not take the whole booking API out of rotation.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
