package h5obj

import "github.com/sirupsen/logrus"

var log logrus.FieldLogger = defaultLogger()

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l.WithField("module", "h5obj")
}

// SetLogger replaces the package logger. Open, create, and close paths emit
// debug-level traces through it; pass a logger with the debug level enabled
// to see them.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}
