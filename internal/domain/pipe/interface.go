package pipe

import (
	"fmt"

	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// RuntimeClass names a category of execution engine a pipe definition can
// target, e.g. PYTHON or DATABASE.
type RuntimeClass string

// Interface is the parsed signature of one pipe: its input slots, its
// optional output, and whether it wants a PipeContext prepended to its
// invocation arguments.
type Interface struct {
	Inputs             []Annotation
	Output             *Annotation
	WantsContext       bool
	CompatibleRuntimes []RuntimeClass
}

// Signature is the raw, pre-parse description of a pipe, as supplied by
// registration.
type Signature struct {
	Inputs             []ParamSpec
	Output             *ParamSpec
	CompatibleRuntimes []RuntimeClass
}

// ParseInterface parses a full pipe signature into an Interface and runs
// structural validation.
func ParseInterface(sig Signature) (Interface, error) {
	iface := Interface{CompatibleRuntimes: sig.CompatibleRuntimes}

	for _, p := range sig.Inputs {
		ann, err := ParseAnnotation(p)
		if err != nil {
			return Interface{}, err
		}
		if ann.WantsContext() {
			iface.WantsContext = true
			continue
		}
		iface.Inputs = append(iface.Inputs, ann)
	}

	if sig.Output != nil {
		ann, err := ParseAnnotation(*sig.Output)
		if err != nil {
			return Interface{}, err
		}
		iface.Output = &ann
	}

	if err := validateInputs(iface.Inputs); err != nil {
		return Interface{}, err
	}

	return iface, nil
}

// validateInputs rejects interfaces with more than one non-optional,
// uncorrelated DataBlock slot (invariant 2): such a pipe could not be
// unambiguously bound from a single upstream stream without correlation via
// DataSet. The self-ref "this" slot is always bound to the node itself, so
// it never contributes to the ambiguity this check guards against.
func validateInputs(inputs []Annotation) error {
	nonOptionalDataBlocks := 0
	for _, a := range inputs {
		if a.FormatClass == FormatDataBlock && !a.Optional && !a.SelfRef {
			nonOptionalDataBlocks++
		}
	}
	if nonOptionalDataBlocks > 1 {
		return runlog.NewInvalidSignature(
			fmt.Sprintf("pipe declares %d non-optional DataBlock inputs, at most one is allowed", nonOptionalDataBlocks))
	}
	return nil
}

// NonSelfRefNames returns the names of every declared input slot that is not
// the self-ref "this" slot, in declaration order.
func (i Interface) NonSelfRefNames() []string {
	var names []string
	for _, a := range i.Inputs {
		if a.SelfRef {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}

// Input looks up a declared input slot by name.
func (i Interface) Input(name string) (Annotation, bool) {
	for _, a := range i.Inputs {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// GenericLabels returns the set of distinct generic schema labels used
// across the interface's inputs and output.
func (i Interface) GenericLabels() []string {
	seen := map[string]bool{}
	var labels []string
	add := func(a Annotation) {
		if a.IsGeneric() && !seen[a.Schema.Ref] {
			seen[a.Schema.Ref] = true
			labels = append(labels, a.Schema.Ref)
		}
	}
	for _, a := range i.Inputs {
		add(a)
	}
	if i.Output != nil {
		add(*i.Output)
	}
	return labels
}
