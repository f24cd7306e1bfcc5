package config

import (
	"strings"

	"go.uber.org/zap"
)

// Log is the process-wide sugared logger, set by InitLogger. Services that
// run before InitLogger (tests mostly) get a no-op logger from Logger().
var Log *zap.SugaredLogger

func InitLogger(env string) error {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = logger.Sugar()
	return nil
}

func Logger() *zap.SugaredLogger {
	if Log == nil {
		Log = zap.NewNop().Sugar()
	}
	return Log
}

func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
