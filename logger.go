package authgate

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// NewLogrusLogger returns a Logger adapter for logrus.FieldLogger.
// Key/value args become logrus fields.
func NewLogrusLogger(l logrus.FieldLogger) Logger {
	return &logrusLoggerAdapter{l}
}

type logrusLoggerAdapter struct{ l logrus.FieldLogger }

func (a *logrusLoggerAdapter) Debug(msg string, args ...any) {
	a.l.WithFields(fields(args)).Debug(msg)
}
func (a *logrusLoggerAdapter) Info(msg string, args ...any) {
	a.l.WithFields(fields(args)).Info(msg)
}
func (a *logrusLoggerAdapter) Warn(msg string, args ...any) {
	a.l.WithFields(fields(args)).Warn(msg)
}
func (a *logrusLoggerAdapter) Error(msg string, args ...any) {
	a.l.WithFields(fields(args)).Error(msg)
}

// NewZapLogger returns a Logger adapter for zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLoggerAdapter{l.Sugar()}
}

type zapLoggerAdapter struct{ l *zap.SugaredLogger }

func (a *zapLoggerAdapter) Debug(msg string, args ...any) { a.l.Debugw(msg, args...) }
func (a *zapLoggerAdapter) Info(msg string, args ...any)  { a.l.Infow(msg, args...) }
func (a *zapLoggerAdapter) Warn(msg string, args ...any)  { a.l.Warnw(msg, args...) }
func (a *zapLoggerAdapter) Error(msg string, args ...any) { a.l.Errorw(msg, args...) }

// NewZerologLogger returns a Logger adapter for zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLoggerAdapter{l}
}

type zerologLoggerAdapter struct{ l zerolog.Logger }

func (a *zerologLoggerAdapter) Debug(msg string, args ...any) {
	a.l.Debug().Fields(map[string]any(fields(args))).Msg(msg)
}
func (a *zerologLoggerAdapter) Info(msg string, args ...any) {
	a.l.Info().Fields(map[string]any(fields(args))).Msg(msg)
}
func (a *zerologLoggerAdapter) Warn(msg string, args ...any) {
	a.l.Warn().Fields(map[string]any(fields(args))).Msg(msg)
}
func (a *zerologLoggerAdapter) Error(msg string, args ...any) {
	a.l.Error().Fields(map[string]any(fields(args))).Msg(msg)
}

// fields turns slog-style alternating key/value args into a field map. A
// dangling value is kept under "!BADKEY", as log/slog does.
func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
