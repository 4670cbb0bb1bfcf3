package automata

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v3/log"
)

var debug atomic.Bool

// SetDebug switches the engine's per-operation debug lines on or off. They
// are off by default: fiber's logger starts at trace level, and a host that
// never lowers it would otherwise print a line per interpreted process.
func SetDebug(on bool) { debug.Store(on) }

// Debugw logs at debug level when SetDebug(true) was called.
func Debugw(msg string, keysAndValues ...any) {
	if debug.Load() {
		log.Debugw(msg, keysAndValues...)
	}
}
