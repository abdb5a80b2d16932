package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New はサービス共通のzapロガーを作る。
// devでは読みやすい出力、それ以外はJSONのproduction設定。
func New(env string) (*zap.Logger, error) {
	if env == "dev" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	return cfg.Build()
}
