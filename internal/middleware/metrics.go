package middleware

import (
	"errors"
	"strconv"
	"time"

	"keranjang/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latencies by matched route, so path
// parameters do not explode label cardinality.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		route := c.Route().Path
		method := c.Method()
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
