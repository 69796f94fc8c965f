package logging

import (
	"context"

	"github.com/blockgraph/runtime/internal/ports"
)

// NoOpLogger discards all log entries. Useful for tests and callers that
// have not wired a real sink.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(context.Context, string, ...interface{}) {}

func (n *NoOpLogger) Info(context.Context, string, ...interface{}) {}

func (n *NoOpLogger) Warn(context.Context, string, ...interface{}) {}

func (n *NoOpLogger) Error(context.Context, string, ...interface{}) {}

func (n *NoOpLogger) With(...interface{}) ports.Logger { return n }

// NewNoOpLogger returns a ports.Logger that discards all log entries.
func NewNoOpLogger() ports.Logger {
	return &NoOpLogger{}
}
