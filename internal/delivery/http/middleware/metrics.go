package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/siempreabierto/internal/metrics"
)

// Metrics - счётчик и гистограмма длительности запросов по шаблону маршрута
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// шаблон маршрута, а не путь: иначе кардинальность меток растёт с каждым id
		route := utils.CopyString(c.Route().Path)
		// метки живут в реестре дольше запроса, а fasthttp переиспользует буфер
		method := utils.CopyString(c.Method())
		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDurationMs.WithLabelValues(method, route).
			Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	}
}
