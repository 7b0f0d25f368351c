package logging

import (
	"io"

	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultFileMaxSizeMB  = 50
	DefaultFileMaxBackups = 3
)

// FileWriter returns a log file writer that rotates at maxSizeMB and keeps
// maxBackups compressed old files. Zero values take the defaults.
func FileWriter(path string, maxSizeMB, maxBackups int) io.WriteCloser {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultFileMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = DefaultFileMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
}

// RedirectToFile sends the process logger to w as JSON lines, keeping its
// level and context fields.
func RedirectToFile(w io.Writer) {
	log.Logger = log.Logger.Output(w)
}
