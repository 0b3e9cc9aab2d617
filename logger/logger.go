// Package logger wraps logrus behind a small structured interface. Contract
// code never logs; the chain, server, indexer, and oracle do.
package logger

import (
	"net"
	"strings"

	logstash "github.com/bshuster-repo/logrus-logstash-hook"
	"github.com/sirupsen/logrus"
)

// Field is one structured key/value pair attached to a log line.
type Field struct {
	Key string
	Val interface{}
}

func WithField(key string, val interface{}) Field {
	return Field{Key: key, Val: val}
}

type Logger interface {
	SetLogLevel(level string)

	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Debug(msg string, fields ...Field)

	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Debugf(format string, args ...interface{})

	SweetenFields(args []interface{}) []Field
}

type LogrusLogger struct {
	logger *logrus.Logger
}

var _ Logger = (*LogrusLogger)(nil)

// NewLogger returns a stdout logger tagged with the service name.
func NewLogger(service string) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &LogrusLogger{logger: withService(l, service)}
}

// NewLogstashLogger additionally ships every line to a logstash endpoint.
func NewLogstashLogger(service, logstashAddr string) (Logger, error) {
	l := logrus.New()
	conn, err := net.Dial("tcp", logstashAddr)
	if err != nil {
		return nil, err
	}
	hook := logstash.New(conn, logstash.DefaultFormatter(logrus.Fields{
		"service": service,
	}))
	l.Hooks.Add(hook)
	return &LogrusLogger{logger: withService(l, service)}, nil
}

func withService(l *logrus.Logger, service string) *logrus.Logger {
	l.AddHook(&serviceHook{service: service})
	return l
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}

func (l *LogrusLogger) SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		l.logger.SetLevel(logrus.DebugLevel)
	case "info":
		l.logger.SetLevel(logrus.InfoLevel)
	case "warn":
		l.logger.SetLevel(logrus.WarnLevel)
	case "error":
		l.logger.SetLevel(logrus.ErrorLevel)
	case "fatal":
		l.logger.SetLevel(logrus.FatalLevel)
	default:
		l.logger.SetLevel(logrus.InfoLevel)
	}
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Error(msg)
}

func (l *LogrusLogger) Fatal(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Fatal(msg)
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.logger.WithFields(fmtFields(fields...)).Debug(msg)
}

func (l *LogrusLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

func (l *LogrusLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *LogrusLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *LogrusLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}

func (l *LogrusLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// SweetenFields converts a loosely-typed argument list into fields: Field
// values pass through, the first error becomes an "error" field, and the
// rest are consumed as key/value pairs.
func (l *LogrusLogger) SweetenFields(args []interface{}) []Field {
	return sweeten(args)
}

func sweeten(args []interface{}) []Field {
	if len(args) == 0 {
		return []Field{}
	}

	var (
		fields    = make([]Field, 0, len(args))
		seenError bool
	)
	for i := 0; i < len(args); {
		if f, ok := args[i].(Field); ok {
			fields = append(fields, f)
			i++
			continue
		}
		if err, ok := args[i].(error); ok {
			if !seenError {
				seenError = true
				fields = append(fields, WithField("error", err))
			}
			i++
			continue
		}
		if i == len(args)-1 {
			break
		}
		key, val := args[i], args[i+1]
		if keyStr, ok := key.(string); ok {
			fields = append(fields, WithField(keyStr, val))
		}
		i += 2
	}
	return fields
}

func fmtFields(fields ...Field) map[string]interface{} {
	if len(fields) == 0 {
		return make(map[string]interface{})
	}
	fieldsMap := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		fieldsMap[field.Key] = field.Val
	}
	return fieldsMap
}
