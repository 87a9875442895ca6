package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a new logger with the specified log level and format.
// Format "json" switches to logrus.JSONFormatter; anything else keeps the
// colored text output used in development.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return logger
}

// WithRequest returns an entry tagged with the request-scoped fields used by
// the HTTP access log.
func WithRequest(logger *logrus.Logger, requestID string, userID int64) *logrus.Entry {
	fields := logrus.Fields{"request_id": requestID}
	if userID != 0 {
		fields["user_id"] = userID
	}
	return logger.WithFields(fields)
}
