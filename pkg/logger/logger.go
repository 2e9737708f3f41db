package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *zap.Logger = zap.NewNop()

// FileConfig enables a rotating log file next to stdout. An empty Path
// keeps console output only.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func InitLogger(env, level string, file FileConfig) error {
	var config zap.Config

	switch env {
	case "dev", "development":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return err
		}
		config.Level = lvl
	}

	if file.Path == "" {
		var err error
		Logger, err = config.Build()
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(Logger)
		return nil
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   true,
	})

	fileEncoderConfig := config.EncoderConfig
	fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(newEncoder(config), zapcore.Lock(os.Stdout), config.Level),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), rotating, config.Level),
	)

	Logger = zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(Logger)

	return nil
}

func newEncoder(config zap.Config) zapcore.Encoder {
	if config.Encoding == "console" {
		return zapcore.NewConsoleEncoder(config.EncoderConfig)
	}
	return zapcore.NewJSONEncoder(config.EncoderConfig)
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

func WithContext(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}
