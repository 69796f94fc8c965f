package main

import (
	"context"
	"fmt"
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/engine"
	"github.com/blockgraph/runtime/internal/infrastructure/config"
	"github.com/blockgraph/runtime/internal/ports"
)

// builtinCallables returns the small, self-contained set of pipe
// implementations blockgraphd ships with out of the box: a static source
// that replays a literal record list from node configuration, and a sink
// that folds an upstream block's metadata into a named DataSet. A real
// deployment supplies its own catalog here, keyed the same way — the
// manifest only ever describes a pipe's signature, never its Go body.
func builtinCallables() config.Callables {
	return config.Callables{
		"source.static": {
			ports.RuntimeClassPython: staticSourceCallable,
		},
		"sink.summarize": {
			ports.RuntimeClassPython: summarizeSinkCallable,
		},
	}
}

// staticSourceCallable replays the records literal declared under the
// node's "records" configuration key, once. It declares a context input so
// it can read the invoking node's configuration via PipeContextFrom.
func staticSourceCallable(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
	pc, ok := engine.PipeContextFrom(ctx)
	if !ok {
		return nil, fmt.Errorf("source.static: requires the context input to read its configuration")
	}
	raw, ok := pc.Config("records")
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("source.static: config key %q must be a list", "records")
	}

	records := make([]block.Record, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("source.static: each record must be a mapping")
		}
		records = append(records, block.Record(fields))
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

// summarizeSinkCallable folds the bound "in" block's metadata into a named
// DataSet, merging it into the session as the node's aggregate view.
func summarizeSinkCallable(ctx context.Context, args map[string]block.DataBlock) (interface{}, error) {
	in, ok := args["in"]
	if !ok {
		return nil, nil
	}
	name := "summary"
	nodeKey := ""
	if pc, ok := engine.PipeContextFrom(ctx); ok {
		nodeKey = pc.Executable.NodeKey
		if raw, ok := pc.Config("name"); ok {
			if n, ok := raw.(string); ok && n != "" {
				name = n
			}
		}
	}
	return block.DataSet{
		Name:          name,
		NodeKey:       nodeKey,
		LatestBlockID: in.ID,
		UpdatedAt:     time.Now(),
	}, nil
}
