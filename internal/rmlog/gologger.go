package rmlog

import (
	"github.com/projectdiscovery/gologger"
)

// GoLogger adapts the package-level github.com/projectdiscovery/gologger
// logger to the Logger interface, for installing with Matcher.SetLogger.
// cmd/rmatchcli logs through gologger directly and does not install it;
// library callers that don't want a dependency on gologger can keep using
// Noop() or supply their own adapter.
type GoLogger struct{}

// NewGoLogger returns a Logger backed by gologger's default writer.
func NewGoLogger() GoLogger { return GoLogger{} }

func (GoLogger) Infof(format string, args ...any) {
	gologger.Info().Msgf(format, args...)
}

func (GoLogger) Warnf(format string, args ...any) {
	gologger.Warning().Msgf(format, args...)
}

func (GoLogger) Debugf(format string, args ...any) {
	gologger.Debug().Msgf(format, args...)
}
