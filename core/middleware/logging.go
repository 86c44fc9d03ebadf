package middleware

import (
	"time"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Logging returns delivery middleware that logs each delivery's duration
// and the message's identity, at debug level.
func Logging() core.Middleware {
	return func(next core.ReceiveFunc) core.ReceiveFunc {
		return func(moduleName string, msg *core.Message) {
			start := time.Now()
			next(moduleName, msg)
			log.Logger.Debug().
				Str("module", moduleName).
				Str("message_id", msg.ID().String()).
				Dur("elapsed", time.Since(start)).
				Msg("gatewaymux: delivered")
		}
	}
}
