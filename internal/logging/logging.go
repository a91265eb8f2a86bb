// Package logging builds the process logger and bridges it to libraries
// that expect their own logger interfaces.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to w at the given level. format is "text" or
// "json".
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)

	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "", "info":
		log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", level)
	}

	switch strings.ToLower(format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", format)
	}
	return log, nil
}

// Leveled adapts a logrus logger to retryablehttp's leveled logger.
type Leveled struct {
	Log logrus.FieldLogger
}

var _ retryablehttp.LeveledLogger = Leveled{}

func (l Leveled) Error(msg string, kv ...interface{}) { l.with(kv).Error(msg) }
func (l Leveled) Warn(msg string, kv ...interface{})  { l.with(kv).Warn(msg) }
func (l Leveled) Info(msg string, kv ...interface{})  { l.with(kv).Debug(msg) }
func (l Leveled) Debug(msg string, kv ...interface{}) { l.with(kv).Debug(msg) }

// with turns alternating key/value pairs into logrus fields.
func (l Leveled) with(kv []interface{}) logrus.FieldLogger {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.Log.WithFields(fields)
}
