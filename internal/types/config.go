package types

// RunMode is the deployment mode of the application
type RunMode string

const (
	ModeLocal RunMode = "local"
	ModeDev   RunMode = "dev"
	ModeProd  RunMode = "prod"
)

// LogLevel is the logging verbosity level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
