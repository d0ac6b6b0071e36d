package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

const envDevelopment = "development"

func init() {
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.ErrorFieldName = "error"
	zerolog.ErrorStackFieldName = "stack-trace"
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.TimestampFieldName = "timestamp"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// InitLogger builds the process logger once. Later calls return the first
// logger regardless of their arguments.
func InitLogger(filepath string, env string) zerolog.Logger {
	once.Do(func() {
		logger = zerolog.New(newWriter(filepath, env)).
			Level(levelOf(env)).
			Hook(AttachTraceIdFromContext()).
			With().
			Timestamp().
			Caller().
			Str("env", env).
			Int("pid", os.Getpid()).
			Logger()

		logger.Info().
			Str(KeyTag, "InitLogger").
			Str(KeyProcess, "InitLogger").
			Str("path", filepath).
			Msg("finish initiating logging")
	})
	return logger
}

func levelOf(env string) zerolog.Level {
	if env == envDevelopment {
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// newWriter writes json to the rotated file. Stdout gets a console writer
// while developing and json otherwise.
func newWriter(filepath string, env string) io.Writer {
	var stdout io.Writer = os.Stdout
	if env == envDevelopment {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}
	if filepath == "" {
		return stdout
	}
	return zerolog.MultiLevelWriter(stdout, &lumberjack.Logger{
		Filename:   filepath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})
}
