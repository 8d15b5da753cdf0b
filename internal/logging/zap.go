package logging

import "go.uber.org/zap"

// ZapLogger adapts a *zap.Logger to Logger.
type ZapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger wraps l. A nil l yields a no-op zap logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Errorf implements Logger.
func (z *ZapLogger) Errorf(format string, args ...any) { z.s.Errorf(format, args...) }

// Warnf implements Logger.
func (z *ZapLogger) Warnf(format string, args ...any) { z.s.Warnf(format, args...) }

// Infof implements Logger.
func (z *ZapLogger) Infof(format string, args ...any) { z.s.Infof(format, args...) }

// Debugf implements Logger.
func (z *ZapLogger) Debugf(format string, args ...any) { z.s.Debugf(format, args...) }
