package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fixedttl-cache/internal/errs"
)

// New builds the application logger. Development loggers are human readable
// and include Debug output by default; production loggers emit JSON.
func New(level string, development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errs.Wrapf(err, "parse log level %q", level)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errs.Wrap(err, "build logger")
	}
	return logger, nil
}
