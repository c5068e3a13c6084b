// Package logging configures the process-wide zerolog logger once at
// startup, mirroring the level/console/file wiring found throughout this
// codebase's services.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Configure sets the global zerolog logger's level and output. An empty
// logPath logs human-readable console output to stderr; a non-empty one
// additionally rotates JSON lines into that file via lumberjack.
func Configure(level, logPath string) {
	zerolog.SetGlobalLevel(parseLevel(level))

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}

	var writer io.Writer = console
	if logPath != "" {
		rotating := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, rotating)
	}

	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
