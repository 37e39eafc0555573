// Package log provides the package-level leveled logger
// (Debugf/Infof/Warnf/Errorf/Fatalf) used across ddprof-go, backed
// directly by logrus.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel changes the minimum level that gets logged. Host applications
// embedding ddprof-go call this once at startup.
func SetLevel(level logrus.Level) {
	std.SetLevel(level)
}

// SetOutput redirects log output, e.g. to a file or io.Discard in tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }
