package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/blockgraph/runtime/internal/ports"
)

// AppContext bundles the long-lived services created at startup.
type AppContext struct {
	Logger ports.Logger
}

// CommandContext returns the command's context (falling back to Background)
// together with a component-scoped logger.
func (a *AppContext) CommandContext(cmd *cobra.Command, component string) (context.Context, ports.Logger) {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return ctx, a.LoggerFor(component)
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}
