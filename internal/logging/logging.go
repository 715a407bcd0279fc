package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with output going to both stdout and a rotating file.
type Logger struct {
	*logrus.Logger
}

// New creates a Logger writing to stdout and a size-rotated log file under dir.
func New(dir, level string) (*Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rotor := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "garden-monitor.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
	}
	l.SetOutput(io.MultiWriter(os.Stdout, rotor))

	return &Logger{Logger: l}, nil
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}
