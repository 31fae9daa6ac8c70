package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	metrics "github.com/symph-co/shorturl/internal/infra/prometheus"
)

// Metrics records request latency labelled by the matched route pattern, so
// every slug shares one series. Mount it outside Logger, which settles the
// final status.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		metrics.HTTPRequests.
			WithLabelValues(c.Method(), route, strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())

		return err
	}
}
