// Package logx builds the process logger.
package logx

import (
	"github.com/sirupsen/logrus"
	"os"
	"strings"
)

// New returns a logrus logger writing to stderr. format is "json" or "text";
// an unknown level falls back to info.
func New(format, level, service string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l.WithField("service", service)
}
