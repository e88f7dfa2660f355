package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/n1str/RationX/internal/logger"
	"github.com/rs/zerolog"
)

// RequestLogger attaches a request scoped logger to the context and logs one
// line per request. It must run after requestid.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		log := base.With().
			Str("request_id", requestid.FromContext(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.SetContext(logger.WithContext(c.Context(), log))

		// render the error here so the logged status is the one sent
		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		} else if status >= fiber.StatusBadRequest {
			event = log.Warn()
		}
		event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}
