package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID correlaciona la petición con los logs de emisión.
const HeaderRequestID = "X-Request-ID"

const localLogger = "logger"

// RequestLogger asigna un request id (o respeta el recibido) y deja un logger con ese id en c.Locals.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		reqLog := log.With().Str("request_id", id).Logger()
		c.Locals(localLogger, &reqLog)

		err := c.Next()
		log.Debug().
			Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Msg("http")
		return err
	}
}

// requestLogger devuelve el logger de la petición (Nop si no pasó por RequestLogger).
func requestLogger(c *fiber.Ctx) *zerolog.Logger {
	if l, ok := c.Locals(localLogger).(*zerolog.Logger); ok {
		return l
	}
	nop := zerolog.Nop()
	return &nop
}
