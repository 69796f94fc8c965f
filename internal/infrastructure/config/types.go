// Package config parses the YAML environment manifest: schemas, runtimes,
// storages, pipe signatures, and the node graph wiring them together. It
// validates the document shape, then builds the runtime entities the engine
// consumes (it never constructs pipe callables itself — those are bound by
// whatever process owns the manifest, keyed by pipe key).
package config

// Manifest is the full environment document.
type Manifest struct {
	Version       string            `yaml:"version" validate:"required,semver"`
	Name          string            `yaml:"name" validate:"required,min=1,max=100"`
	Schemas       []SchemaSpec      `yaml:"schemas,omitempty" validate:"omitempty,dive"`
	Runtimes      []RuntimeSpec     `yaml:"runtimes" validate:"required,min=1,dive"`
	Storages      []StorageSpec     `yaml:"storages" validate:"required,min=1,dive"`
	TargetStorage string            `yaml:"target_storage" validate:"required"`
	Pipes         []PipeSpec        `yaml:"pipes" validate:"required,min=1,dive"`
	Nodes         []NodeSpec        `yaml:"nodes" validate:"required,min=1,dive"`
}

// SchemaSpec names a record schema the manifest pre-registers, so pipes can
// reference it by ref without relying on structural Any/generic defaults.
type SchemaSpec struct {
	Ref string `yaml:"ref" validate:"required,schema_ref"`
}

// RuntimeSpec declares one execution engine a context may dispatch to.
type RuntimeSpec struct {
	Class string `yaml:"class" validate:"required,runtime_class"`
	URL   string `yaml:"url" validate:"required"`
}

// StorageSpec declares one allow-listed storage URL candidate blocks may
// reside on for stream filtering.
type StorageSpec struct {
	URL string `yaml:"url" validate:"required"`
}

// ParamSpec is one declared pipe parameter, mirroring pipe.ParamSpec's shape
// in a YAML-friendly, string-only form.
type ParamSpec struct {
	Name       string `yaml:"name" validate:"required"`
	Type       string `yaml:"type" validate:"required"`
	HasDefault bool   `yaml:"has_default,omitempty"`
	Variadic   bool   `yaml:"variadic,omitempty"`
}

// PipeSpec declares one registered pipe's signature: its inputs, optional
// output, and the runtime classes it can execute under. The callable or SQL
// body is supplied out of band by key.
type PipeSpec struct {
	Key                string      `yaml:"key" validate:"required"`
	Inputs             []ParamSpec `yaml:"inputs,omitempty" validate:"omitempty,dive"`
	Output             *ParamSpec  `yaml:"output,omitempty"`
	CompatibleRuntimes []string    `yaml:"compatible_runtimes,omitempty" validate:"omitempty,dive,runtime_class"`
}

// NodeSpec declares one configured node instance in the graph: which pipe it
// runs, which upstream node key feeds each declared input slot, and its
// static configuration.
type NodeSpec struct {
	Key           string            `yaml:"key" validate:"required,node_key"`
	PipeKey       string            `yaml:"pipe_key" validate:"required"`
	Inputs        map[string]string `yaml:"inputs,omitempty"`
	Configuration map[string]any    `yaml:"config,omitempty"`
}
