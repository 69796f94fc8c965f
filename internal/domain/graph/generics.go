package graph

import (
	"fmt"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/pipe"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// ResolveGenerics implements the two-pass generic schema resolution: collect
// {generic_label -> concrete_schema} from every bound input slot's realized
// schema. A label resolving to two different concrete schemas is an
// InvalidInputAssignment (invariant 3).
func (b *BoundInterface) ResolveGenerics() (map[string]block.Schema, error) {
	resolved := make(map[string]block.Schema)
	for _, slot := range b.Inputs {
		if !slot.Annotation.IsGeneric() || slot.BoundBlock == nil {
			continue
		}
		label := slot.Annotation.Schema.Ref
		concrete := slot.BoundBlock.RealizedSchema
		if existing, ok := resolved[label]; ok && existing.Ref != concrete.Ref {
			return nil, runlog.NewInvalidInputAssignment(
				fmt.Sprintf("generic label %q resolves to both %q and %q", label, existing.Ref, concrete.Ref))
		}
		resolved[label] = concrete
	}
	return resolved, nil
}

// SpecializeOutput substitutes resolved generic labels into the output
// annotation's schema, returning the concrete output annotation to use when
// constructing the produced block.
func SpecializeOutput(output *pipe.Annotation, resolved map[string]block.Schema) *pipe.Annotation {
	if output == nil {
		return nil
	}
	if !output.IsGeneric() {
		return output
	}
	concrete, ok := resolved[output.Schema.Ref]
	if !ok {
		return output
	}
	specialized := *output
	specialized.Schema = concrete
	return &specialized
}
