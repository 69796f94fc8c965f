package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/engine"
	"github.com/blockgraph/runtime/internal/infrastructure/config"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
)

type runOptions struct {
	node string
	all  bool
}

func newRunCmd(root *rootFlags, app *AppContext) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive one node, or every node in declaration order, to exhaustion",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root.manifest == "" {
				return fmt.Errorf("--manifest is required")
			}
			if opts.node == "" && !opts.all {
				return fmt.Errorf("specify --node <key> or --all")
			}
			ctx, logger := app.CommandContext(cmd, "command.run")
			return runNodes(ctx, root.manifest, opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.node, "node", "n", "", "Node key to run")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Run every declared node, in manifest order")

	return cmd
}

func runNodes(ctx context.Context, manifestPath string, opts runOptions, logger ports.Logger) error {
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

	toRun := nodes
	if !opts.all {
		node, ok := findNode(nodes, opts.node)
		if !ok {
			return fmt.Errorf("no such node %q", opts.node)
		}
		toRun = []graph.Node{node}
	}

	for _, n := range toRun {
		out, err := mgr.Execute(ctx, n, session, local, target, target.URL(),
			[]string{local.URL(), target.URL()}, logger, true)
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Key, err)
		}
		if out != nil {
			if logger != nil {
				logger.Info(ctx, "node produced output", "node_key", n.Key, "block_id", out.ID, "record_count", out.RecordCount)
			}
		} else if logger != nil {
			logger.Info(ctx, "node produced no output", "node_key", n.Key)
		}
	}

	return nil
}

// loadEnvironment parses and builds the manifest into a ready environment,
// runtime list, and the node list in declared order.
func loadEnvironment(ctx context.Context, manifestPath string, logger ports.Logger) (*memstore.Environment, []ports.Runtime, []graph.Node, error) {
	m, err := config.ParseManifest(manifestPath)
	if err != nil {
		return nil, nil, nil, err
	}

	sessionFactory := func(ctx context.Context) (ports.MetadataSession, error) {
		return memstore.NewSession(), nil
	}

	env, runtimes, err := config.Build(ctx, m, builtinCallables(), sessionFactory, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	nodes := make([]graph.Node, 0, len(m.Nodes))
	for _, n := range m.Nodes {
		node, err := env.GetNode(ctx, n.Key)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, node)
	}

	return env, runtimes, nodes, nil
}

func findNode(nodes []graph.Node, key string) (graph.Node, bool) {
	for _, n := range nodes {
		if n.Key == key {
			return n, true
		}
	}
	return graph.Node{}, false
}
