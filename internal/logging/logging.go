// Package logging builds the application logger: console output at Info
// and an optional rotating debug log file. The logger itself is kept at
// Debug and each sink filters its own levels, so the file always carries
// more detail than the console.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// writerHook sends formatted entries at the given levels to a writer.
type writerHook struct {
	writer    io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// New creates the application logger. Unless quiet, Info and above go to
// stdout.
func New(quiet bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)

	if !quiet {
		logger.AddHook(&writerHook{
			writer: os.Stdout,
			levels: []logrus.Level{
				logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel,
				logrus.WarnLevel, logrus.InfoLevel,
			},
			formatter: &logrus.TextFormatter{
				FullTimestamp: true,
			},
		})
	}
	return logger
}

// AddFileSink attaches a Debug-level rotating file sink at path.
func AddFileSink(logger *logrus.Logger, path string) {
	logger.AddHook(&writerHook{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		},
		levels: logrus.AllLevels,
		formatter: &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		},
	})
}
