package dashboard

import (
	"time"

	"github.com/blockgraph/runtime/internal/domain/block"
)

// ViewMode determines which screen to render.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewHelp
)

// nodeRunCompleteMsg reports the outcome of running a single node to
// exhaustion.
type nodeRunCompleteMsg struct {
	NodeKey    string
	Output     *block.DataBlock
	Err        error
	FinishedAt time.Time
}

// runAllStepMsg reports one node's completion during a "run all" sweep.
type runAllStepMsg struct {
	NodeKey string
	Index   int
	Total   int
	Output  *block.DataBlock
	Err     error
}

// runAllCompleteMsg indicates every node in the sweep has been visited.
type runAllCompleteMsg struct{}

// toggleHelpMsg requests the help overlay be toggled.
type toggleHelpMsg struct{}

// clearErrorMsg requests the error banner be dismissed.
type clearErrorMsg struct{}
