package ports

import "github.com/blockgraph/runtime/internal/domain/pipe"

// Runtime is one execution engine a context can dispatch pipe invocations
// to, identified by a compatibility class (e.g. PYTHON, DATABASE) and
// addressed by a URL recorded on every PipeLog it produces.
type Runtime struct {
	Class pipe.RuntimeClass
	URL   string
}

const (
	RuntimeClassPython   pipe.RuntimeClass = "PYTHON"
	RuntimeClassDatabase pipe.RuntimeClass = "DATABASE"
)
