package logger

import (
	"github.com/clubroll/clubroll/internal/config"
	"github.com/clubroll/clubroll/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates and returns a new Logger instance honoring the
// configured log level and deployment mode.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg != nil && cfg.Deployment.Mode == types.ModeLocal {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg != nil {
		zapCfg.Level = zap.NewAtomicLevelAt(levelFor(cfg.Logging.Level))
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	logger := &Logger{SugaredLogger: zapLogger.Sugar()}
	L = logger
	return logger, nil
}

func levelFor(level types.LogLevel) zapcore.Level {
	switch level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize a default global logger so that scripts and early startup code
// can log before DI has run. Everywhere else should take the Logger through
// dependency injection.
func init() {
	zapLogger, _ := zap.NewProduction()
	L = &Logger{SugaredLogger: zapLogger.Sugar()}
}

// With returns a child logger with the given structured context attached.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}
