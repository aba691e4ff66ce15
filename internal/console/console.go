// Package console is the leveled, colored progress output used by the
// provisioning steps. It carries no control-flow significance.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger(os.Stdout)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		ForceColors:            true,
		FullTimestamp:          true,
		TimestampFormat:        "15:04:05",
		DisableLevelTruncation: true,
	})
	return l
}

// SetLevel adjusts verbosity. Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

// SetOutput redirects all output. Tests capture it with a buffer.
func SetOutput(out io.Writer) {
	log.SetOutput(out)
}

func Infof(format string, args ...any) {
	log.Infof(format, args...)
}

// Successf is an info-level line marked as a completed step.
func Successf(format string, args ...any) {
	log.Infof("✔ %s", fmt.Sprintf(format, args...))
}

func Warningf(format string, args ...any) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	log.Errorf(format, args...)
}

func Debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

// Section prints a visual header between provisioning phases.
func Section(title string) {
	bar := strings.Repeat("=", len(title)+8)
	log.Infof("%s", bar)
	log.Infof("    %s", title)
	log.Infof("%s", bar)
}
