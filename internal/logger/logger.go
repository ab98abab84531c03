package logger

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options are the logger settings.
type Options struct {
	Level  string
	Format string
	// File enables logging into a rotated file instead of stderr.
	File string
}

// New returns a new well configured logger.
func New(opts Options) (*logrus.Logger, error) {
	log := logrus.New()

	level := opts.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse log level")
	}
	log.SetLevel(lvl)

	switch opts.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unsupported log format %q", opts.Format)
	}

	log.SetOutput(output(opts.File))
	return log, nil
}

func output(filename string) io.Writer {
	if filename == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    20, // megabytes
		MaxBackups: 2,
		MaxAge:     10, //days
	}
}
