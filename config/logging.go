package config

import "go.uber.org/zap/zapcore"

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder              LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel       string     `mapstructure:"app"`
	BridgeLoggerLevel    string     `mapstructure:"bridge"`
	ChainLoggerLevel     string     `mapstructure:"chain"`
	SchedulerLoggerLevel string     `mapstructure:"scheduler"`
	BlocksLoggerLevel    string     `mapstructure:"blocks"`
	TxsLoggerLevel       string     `mapstructure:"txs"`
	StorageLoggerLevel   string     `mapstructure:"storage"`
	MetricsLoggerLevel   string     `mapstructure:"metrics"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:              ConsoleLogEncoder,
		AppLoggerLevel:       defaultLoggingLevel.String(),
		BridgeLoggerLevel:    defaultLoggingLevel.String(),
		ChainLoggerLevel:     defaultLoggingLevel.String(),
		SchedulerLoggerLevel: zapcore.WarnLevel.String(),
		BlocksLoggerLevel:    defaultLoggingLevel.String(),
		TxsLoggerLevel:       defaultLoggingLevel.String(),
		StorageLoggerLevel:   zapcore.WarnLevel.String(),
		MetricsLoggerLevel:   defaultLoggingLevel.String(),
	}
}
