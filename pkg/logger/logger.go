package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log 全局日志实例
var Log *zap.Logger

// Init 初始化 zap 日志
// mode: debug 使用开发配置（彩色、可读），release 使用生产配置（JSON）
func Init(mode string) {
	var (
		l   *zap.Logger
		err error
	)

	if mode == "release" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build(zap.AddCaller())
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build()
	}

	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	Log = l
	zap.ReplaceGlobals(l)
}

// Sync 刷新缓冲的日志条目
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
