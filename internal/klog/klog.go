// Package klog is the subsystem's printk-family logger: call sites read
// like the kernel logging macros spec.md treats as out-of-scope glue
// (Warnf, Tracef, Debugf), but the implementation underneath is an
// ordinary structured zerolog.Logger so the rest of the host process can
// consume it the same way it consumes every other component's logs.
package klog

import (
	"os"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Str("subsystem", "crow").Logger()

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLevel adjusts the global log level for the subsystem.
func SetLevel(lvl zerolog.Level) {
	zerolog.SetGlobalLevel(lvl)
}

// Tracef logs a hot-path, sub-debug message — used for the waiter's
// per-yield and per-pause decisions.
func Tracef(format string, args ...any) {
	log.Trace().Msgf(format, args...)
}

// Debugf logs a debug-level message.
func Debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

// Infof logs an info-level message.
func Infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

// Warnf logs a warning — used for the witness build's "called from a
// non-sleepable context" diagnostic.
func Warnf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}
