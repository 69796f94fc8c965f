package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/blockgraph/runtime/internal/engine"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
	"github.com/blockgraph/runtime/internal/tui/dashboard"
)

func newDashboardCmd(root *rootFlags, app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Launch the interactive node execution dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.manifest == "" {
				return fmt.Errorf("--manifest is required")
			}
			ctx, logger := app.CommandContext(cmd, "command.dashboard")
			return runDashboard(ctx, root.manifest, logger)
		},
	}

	return cmd
}

func runDashboard(ctx context.Context, manifestPath string, logger ports.Logger) error {
	env, runtimes, nodes, err := loadEnvironment(ctx, manifestPath, logger)
	if err != nil {
		return err
	}

	session, err := env.NewMetadataSession(ctx)
	if err != nil {
		return err
	}

	local := memstore.NewMemoryStorage(ports.LocalMemoryStorageURL)
	target := memstore.NewMemoryStorage("memory://target")
	mgr := engine.NewExecutionManager(env, runtimes)

	rc := dashboard.NewRunConfig(mgr, session, local, target, target.URL(),
		[]string{local.URL(), target.URL()}, logger)

	m := dashboard.NewModel(ctx, nodes, rc)

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
