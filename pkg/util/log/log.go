// Package log wraps klog so the rest of the codebase logs through a single,
// verbosity-aware interface. Callers obtain a leveled logger with V(n) and
// are expected to use Infof/Warningf/Errorf rather than talking to klog
// directly.
package log

import (
	"fmt"

	"k8s.io/klog"
)

// Logger is the leveled logger handed out to packages. All output goes to
// stderr, which keeps stdout free for the wrapped tools' own output.
type Logger struct{}

// Verbose is a logger gated on a verbosity level, mirroring klog.V.
type Verbose bool

// StderrLog is the logger used across the codebase.
var StderrLog = Logger{}

// V returns a Verbose logger that only emits when the configured loglevel
// is at or above the given level.
func (l Logger) V(level int32) Verbose {
	return Verbose(bool(klog.V(klog.Level(level))))
}

// Is reports whether the given verbosity level is enabled.
func (l Logger) Is(level int32) bool {
	return bool(klog.V(klog.Level(level)))
}

// Info logs at the default level.
func (l Logger) Info(args ...interface{}) {
	klog.InfoDepth(1, args...)
}

// Infof logs at the default level with formatting.
func (l Logger) Infof(format string, args ...interface{}) {
	klog.InfoDepth(1, fmt.Sprintf(format, args...))
}

// Warning logs a warning.
func (l Logger) Warning(args ...interface{}) {
	klog.WarningDepth(1, args...)
}

// Warningf logs a warning with formatting.
func (l Logger) Warningf(format string, args ...interface{}) {
	klog.WarningDepth(1, fmt.Sprintf(format, args...))
}

// Error logs an error.
func (l Logger) Error(args ...interface{}) {
	klog.ErrorDepth(1, args...)
}

// Errorf logs an error with formatting.
func (l Logger) Errorf(format string, args ...interface{}) {
	klog.ErrorDepth(1, fmt.Sprintf(format, args...))
}

// Fatal logs and exits.
func (l Logger) Fatal(args ...interface{}) {
	klog.FatalDepth(1, args...)
}

// Info logs at the verbose level, if enabled.
func (v Verbose) Info(args ...interface{}) {
	if v {
		klog.InfoDepth(1, args...)
	}
}

// Infof logs at the verbose level with formatting, if enabled.
func (v Verbose) Infof(format string, args ...interface{}) {
	if v {
		klog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}
