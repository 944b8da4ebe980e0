package log

import (
	"github.com/sirupsen/logrus"
)

// New creates the root logger for a configuration. Unknown levels fall
// back to debug and unknown formats to json
func New(config *Config) Logger {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.DebugLevel
	}

	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if config.Format == "text" {
		formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	}

	return NewLogrus(LogrusLoggerProperties{
		Level:     level,
		Formatter: formatter,
	})
}
