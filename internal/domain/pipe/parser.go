package pipe

import (
	"fmt"
	"regexp"

	"github.com/blockgraph/runtime/internal/domain/block"
	"github.com/blockgraph/runtime/internal/domain/runlog"
)

// selfRefParamName is the distinguished slot name that binds to a node's own
// prior output, the only permitted cycle.
const selfRefParamName = "this"

// contextParamName is the distinguished slot name that requests a PipeContext
// be prepended to the invocation arguments rather than a bound block.
const contextParamName = "context"

// typeHintPattern parses annotations of the form Optional[F[S]], where F is a
// format class and S an optional schema reference.
var typeHintPattern = regexp.MustCompile(
	`^(?P<optional>Optional\[)?(?P<origin>\w+)(\[(?P<arg>(\w+\.)?\w+)\])?\]?$`,
)

// ParamSpec is the raw, language-level description of one declared parameter
// before grammar parsing: its name, its textual type annotation, and whether
// it carries a default value or is variadic.
type ParamSpec struct {
	Name          string
	TypeAnnotation string
	HasDefault    bool
	Variadic      bool
}

// ParseAnnotation parses one declared parameter's textual annotation into an
// Annotation, applying the extraction rules: self-ref naming, default-value
// optionality, variadic flagging, and the Optional[F[S]] grammar itself.
func ParseAnnotation(p ParamSpec) (Annotation, error) {
	if p.TypeAnnotation == "" {
		return Annotation{}, runlog.NewInvalidSignature(
			fmt.Sprintf("parameter %q has no type annotation", p.Name))
	}

	m := typeHintPattern.FindStringSubmatch(p.TypeAnnotation)
	if m == nil {
		return Annotation{}, runlog.NewInvalidSignature(
			fmt.Sprintf("invalid annotation %q for parameter %q", p.TypeAnnotation, p.Name))
	}
	groups := namedGroups(typeHintPattern, m)

	optional := groups["optional"] != "" || p.HasDefault
	origin := groups["origin"]
	schemaRef := groups["arg"]

	if origin == "" {
		return Annotation{}, runlog.NewInvalidSignature(
			fmt.Sprintf("could not determine format class from %q", p.TypeAnnotation))
	}

	formatClass := FormatClass(origin)
	if !IsValidFormatClass(formatClass) {
		if p.Name == contextParamName {
			return Annotation{Name: p.Name}, nil
		}
		return Annotation{}, runlog.NewInvalidSignature(
			fmt.Sprintf("%q is not a valid data format class", origin))
	}

	schema := block.NewSchema(schemaRef)
	if !schema.Valid() {
		return Annotation{}, runlog.NewInvalidSignature(
			fmt.Sprintf("invalid schema reference %q on parameter %q", schemaRef, p.Name))
	}

	return Annotation{
		Name:        p.Name,
		FormatClass: formatClass,
		Schema:      schema,
		Optional:    optional,
		Variadic:    p.Variadic,
		SelfRef:     p.Name == selfRefParamName,
	}, nil
}

// WantsContext reports whether the annotation denotes the distinguished
// context parameter rather than a bound data slot.
func (a Annotation) WantsContext() bool {
	return a.Name == contextParamName && a.FormatClass == ""
}

func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	result := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		result[name] = match[i]
	}
	return result
}
