package logger

import "fmt"

// MockLogger prints to stdout. Used by tests and examples.
type MockLogger struct{}

var _ Logger = (*MockLogger)(nil)

func NewMockLogger() Logger { return MockLogger{} }

func (m MockLogger) SetLogLevel(level string) {}

func (m MockLogger) Info(msg string, fields ...Field) {
	fmt.Printf("%s %+v\n", msg, fields)
}

func (m MockLogger) Warn(msg string, fields ...Field) {
	fmt.Printf("%s %+v\n", msg, fields)
}

func (m MockLogger) Error(msg string, fields ...Field) {
	fmt.Printf("%s %+v\n", msg, fields)
}

func (m MockLogger) Fatal(msg string, fields ...Field) {
	fmt.Printf("%s %+v\n", msg, fields)
}

func (m MockLogger) Debug(msg string, fields ...Field) {
	fmt.Printf("%s %+v\n", msg, fields)
}

func (m MockLogger) Infof(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (m MockLogger) Warnf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (m MockLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (m MockLogger) Fatalf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (m MockLogger) Debugf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

func (m MockLogger) SweetenFields(args []interface{}) []Field {
	return sweeten(args)
}
