package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	*zerolog.Logger
	component string
}

var (
	// Log levels per environment
	logLevel = map[string]zerolog.Level{
		"development": zerolog.DebugLevel,
		"test":        zerolog.WarnLevel,
		"staging":     zerolog.InfoLevel,
		"production":  zerolog.InfoLevel,
	}
)

// Config represents logger configuration
type Config struct {
	IsProduction bool
	AppEnv       string
	Out          io.Writer
}

// New creates a new logger instance for a specific component
func New(component string) *Logger {
	return NewWithConfig(component, Config{
		IsProduction: os.Getenv("APP_ENV") == "production",
		AppEnv:       os.Getenv("APP_ENV"),
	})
}

// NewWithConfig creates a new logger instance with custom configuration.
// Production writes JSON lines with a component field; every other
// environment gets the colored console format.
func NewWithConfig(component string, config Config) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := config.Out
	if out == nil {
		out = os.Stdout
	}

	var logger zerolog.Logger
	if config.IsProduction {
		logger = zerolog.New(out).
			Level(getLogLevel(config.AppEnv)).
			With().
			Timestamp().
			Str("component", component).
			Logger()
	} else {
		output := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
			FormatMessage: func(i interface{}) string {
				return fmt.Sprintf("[%s] %s", component, i)
			},
			FormatLevel: formatLevel,
		}
		logger = zerolog.New(output).
			Level(getLogLevel(config.AppEnv)).
			With().
			Timestamp().
			Logger()
	}

	return &Logger{
		Logger:    &logger,
		component: component,
	}
}

func formatLevel(i interface{}) string {
	level, ok := i.(string)
	if !ok {
		return "???"
	}
	switch level {
	case "debug":
		return "\033[36m[DEBUG]\033[0m" // Cyan
	case "info":
		return "\033[34m[INFO]\033[0m" // Blue
	case "warn":
		return "\033[33m[WARN]\033[0m" // Yellow
	case "error":
		return "\033[31m[ERROR]\033[0m" // Red
	case "fatal":
		return "\033[35m[FATAL]\033[0m" // Purple
	default:
		return fmt.Sprintf("[%s]", level)
	}
}

// getLogLevel returns the appropriate log level based on environment
func getLogLevel(env string) zerolog.Level {
	if level, exists := logLevel[env]; exists {
		return level
	}
	return zerolog.DebugLevel
}

// Component returns the name the logger was created with.
func (l *Logger) Component() string { return l.component }

func (l *Logger) LogInfo(msg string) { l.Info().Msg(msg) }
func (l *Logger) LogWarn(msg string) { l.Warn().Msg(msg) }

func (l *Logger) LogDebugf(format string, v ...interface{}) {
	l.Debug().Msgf(format, v...)
}

func (l *Logger) LogInfof(format string, v ...interface{}) {
	l.Info().Msgf(format, v...)
}

// LogSuccessf logs at info level with a success marker.
func (l *Logger) LogSuccessf(format string, v ...interface{}) {
	l.Info().Bool("success", true).Msgf(format, v...)
}

func (l *Logger) LogWarnf(format string, v ...interface{}) {
	l.Warn().Msgf(format, v...)
}

func (l *Logger) LogErrorf(format string, v ...interface{}) {
	l.Error().Msgf(format, v...)
}

func (l *Logger) LogFatalf(format string, v ...interface{}) {
	l.Fatal().Msgf(format, v...)
}
