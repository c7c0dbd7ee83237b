package utils

import (
	"fmt"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"os"
	"path/filepath"
)

var (
	LogMaxSize    = 64
	LogMaxBackups = 8
	LogMaxAge     = 30
)

// NewLog writes to stdout, and to a rotated dir/name.log when dir is set.
func NewLog(dir, name string) *log.Logger {
	var out io.Writer = os.Stdout
	if dir != "" {
		file := &lumberjack.Logger{
			Filename:   filepath.Join(dir, fmt.Sprintf("%s.log", name)),
			MaxSize:    LogMaxSize,
			MaxBackups: LogMaxBackups,
			MaxAge:     LogMaxAge,
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	return log.New(out, fmt.Sprintf("[%s] ", name), log.LstdFlags|log.Lmicroseconds)
}
