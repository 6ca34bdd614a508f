package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建 invwe-data 使用的 Logger
// level: debug/info/warn/error，无法识别时用 info
// format: console 为开发格式，其它一律 JSON 输出到 stdout
// fields: 进程级固定字段（如 auth_mode、db_enabled），会附加到每条日志
func NewLogger(level, format, serviceName string, fields ...zap.Field) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil || zapLevel > zapcore.ErrorLevel {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base := []zap.Field{}
	if serviceName != "" {
		base = append(base, zap.String("service_name", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = append(base, zap.String("hostname", hostname))
	}

	lg, err := cfg.Build(zap.Fields(append(base, fields...)...))
	if err != nil {
		return nil, err
	}
	return lg, nil
}
