package config

import (
	"context"
	"fmt"
	"sort"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/graph"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/infrastructure/memstore"
	"github.com/blockgraph/runtime/internal/ports"
)

// Callables maps a pipe key and runtime class to the Go-native function that
// implements it. A manifest can declare a pipe's signature in YAML, but YAML
// cannot express a function body, so every pipe's executable side is
// supplied here by whatever process owns the manifest.
type Callables map[string]map[pipe.RuntimeClass]ports.Callable

// Build maps a validated Manifest into a ready-to-use Environment and its
// Runtime list, registering every declared schema, pipe, and node. logger
// may be nil.
func Build(ctx context.Context, m *Manifest, callables Callables, sessionFactory func(ctx context.Context) (ports.MetadataSession, error), logger ports.Logger) (*memstore.Environment, []ports.Runtime, error) {
	env := memstore.NewEnvironment(sessionFactory)

	for _, s := range m.Schemas {
		env.RegisterSchema(block.NewSchema(s.Ref))
	}
	logDebug(ctx, logger, "registered schemas", map[string]interface{}{"count": len(m.Schemas)})

	runtimes := make([]ports.Runtime, 0, len(m.Runtimes))
	for _, r := range m.Runtimes {
		runtimes = append(runtimes, ports.Runtime{Class: pipe.RuntimeClass(r.Class), URL: r.URL})
	}

	for _, p := range m.Pipes {
		iface, err := pipe.ParseInterface(toSignature(p))
		if err != nil {
			return nil, nil, fmt.Errorf("building pipe %q: %w", p.Key, err)
		}

		defs := make(map[pipe.RuntimeClass]ports.Definition, len(iface.CompatibleRuntimes))
		classes := callables[p.Key]
		for _, class := range iface.CompatibleRuntimes {
			fn, ok := classes[class]
			if !ok {
				logWarn(ctx, logger, "pipe declares compatible runtime with no bound callable",
					map[string]interface{}{"pipe_key": p.Key, "runtime_class": string(class)})
				continue
			}
			defs[class] = ports.Definition{Class: class, Callable: fn}
		}

		env.RegisterPipe(ports.Pipe{Key: p.Key, Interface: iface, Definitions: defs})
	}
	logInfo(ctx, logger, "registered pipes", map[string]interface{}{"count": len(m.Pipes)})

	for _, n := range m.Nodes {
		p, err := env.GetPipe(ctx, n.PipeKey)
		if err != nil {
			return nil, nil, fmt.Errorf("building node %q: %w", n.Key, err)
		}
		env.RegisterNode(graph.NewNode(n.Key, n.PipeKey, p.Interface, n.Inputs, n.Configuration))
	}
	logInfo(ctx, logger, "registered nodes", map[string]interface{}{"count": len(m.Nodes)})

	return env, runtimes, nil
}

func toSignature(p PipeSpec) pipe.Signature {
	sig := pipe.Signature{CompatibleRuntimes: make([]pipe.RuntimeClass, 0, len(p.CompatibleRuntimes))}
	for _, in := range p.Inputs {
		sig.Inputs = append(sig.Inputs, pipe.ParamSpec{
			Name:           in.Name,
			TypeAnnotation: in.Type,
			HasDefault:     in.HasDefault,
			Variadic:       in.Variadic,
		})
	}
	if p.Output != nil {
		sig.Output = &pipe.ParamSpec{
			Name:           p.Output.Name,
			TypeAnnotation: p.Output.Type,
			HasDefault:     p.Output.HasDefault,
			Variadic:       p.Output.Variadic,
		}
	}
	for _, c := range p.CompatibleRuntimes {
		sig.CompatibleRuntimes = append(sig.CompatibleRuntimes, pipe.RuntimeClass(c))
	}
	return sig
}

func flattenFields(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

func logDebug(ctx context.Context, logger ports.Logger, msg string, fields map[string]interface{}) {
	if logger == nil {
		return
	}
	logger.Debug(ctx, msg, flattenFields(fields)...)
}

func logInfo(ctx context.Context, logger ports.Logger, msg string, fields map[string]interface{}) {
	if logger == nil {
		return
	}
	logger.Info(ctx, msg, flattenFields(fields)...)
}

func logWarn(ctx context.Context, logger ports.Logger, msg string, fields map[string]interface{}) {
	if logger == nil {
		return
	}
	logger.Warn(ctx, msg, flattenFields(fields)...)
}
