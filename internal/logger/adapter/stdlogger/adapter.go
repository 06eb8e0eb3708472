// Package stdlogger adapts the global zerolog logger to the printf-style
// logger interfaces expected by third-party libraries, among them gorm's
// logger.Writer.
package stdlogger

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Adapter exposes printf-style logging methods backed by zerolog.
type Adapter struct {
	logger zerolog.Logger
}

// New creates an adapter around the global logger.
func New() *Adapter {
	return &Adapter{logger: log.Logger}
}

// Debugf logs at debug level.
func (a *Adapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}

// Infof logs at info level.
func (a *Adapter) Infof(format string, args ...interface{}) {
	a.logger.Info().Msgf(format, args...)
}

// Warningf logs at warn level.
func (a *Adapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn().Msgf(format, args...)
}

// Errorf logs at error level.
func (a *Adapter) Errorf(format string, args ...interface{}) {
	a.logger.Error().Msgf(format, args...)
}

// Printf logs at info level. It satisfies gorm's logger.Writer.
func (a *Adapter) Printf(format string, args ...interface{}) {
	a.logger.Info().Msgf(format, args...)
}
