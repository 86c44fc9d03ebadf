package middleware

import (
	"runtime"

	"github.com/gatewaymux/gatewaymux/core"
	"github.com/gatewaymux/gatewaymux/internal/log"
)

// Recovery returns delivery middleware that contains a panic raised by a
// module's Receive, logs the stack trace, and lets the delivery worker keep
// running (§4.1: "a Receive that throws/panics is contained").
func Recovery() core.Middleware {
	return func(next core.ReceiveFunc) core.ReceiveFunc {
		return func(moduleName string, msg *core.Message) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					log.Logger.Error().
						Str("module", moduleName).
						Interface("panic", r).
						Str("stack", string(buf[:n])).
						Msg("gatewaymux: recovered panic in Receive")
				}
			}()
			next(moduleName, msg)
		}
	}
}
