package trace

import "github.com/sirupsen/logrus"

type logrusSink struct {
	l logrus.FieldLogger
}

// Logrus returns a Sink writing debug entries to l.
func Logrus(l logrus.FieldLogger) Sink {
	if l == nil {
		return Nop
	}
	return logrusSink{l}
}

func (s logrusSink) Enabled() bool {
	switch l := s.l.(type) {
	case *logrus.Logger:
		return l.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return l.Logger.IsLevelEnabled(logrus.DebugLevel)
	}
	return true
}

func (s logrusSink) Call(op string, fields ...Field) {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.String()
	}
	s.l.WithFields(lf).Debug(op)
}
