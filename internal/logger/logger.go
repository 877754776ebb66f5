package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bronze-trades-generator/internal/config"
)

// NewLogger creates a new zap.Logger from the logger section of the config.
// Format "json" selects the production encoder, anything else the console one.
func NewLogger(cfg config.Logger) (*zap.Logger, error) {
	logLevel, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zc.Level = zap.NewAtomicLevelAt(logLevel)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.InitialFields = map[string]interface{}{"service": "bronze-trades-generator"}

	return zc.Build()
}
