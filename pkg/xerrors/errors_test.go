package xerrors

import (
	"fmt"
	"testing"

	"github.com/blockgraph/runtime/internal/domain/runlog"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeMapsDomainErrors(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitNoCompatibleRuntime, ExitCode(runlog.NewNoCompatibleRuntime("p")))
	assert.Equal(t, ExitInvalidSignature, ExitCode(runlog.NewInvalidSignature("bad")))
	assert.Equal(t, ExitPipeFailure, ExitCode(runlog.NewPipeFailure(fmt.Errorf("boom"))))
	assert.Equal(t, ExitUnknown, ExitCode(fmt.Errorf("plain")))
}

func TestExitCodeMapsConfigErrors(t *testing.T) {
	assert.Equal(t, ExitConfigError, ExitCode(NewParseError("manifest.yaml", 3, fmt.Errorf("bad yaml"))))
	assert.Equal(t, ExitConfigError, ExitCode(NewValidationError("storages", "missing url", nil)))
}

func TestParseErrorFormatting(t *testing.T) {
	err := NewParseError("manifest.yaml", 3, fmt.Errorf("bad indent"))
	assert.Contains(t, err.Error(), "manifest.yaml:3")
	assert.Contains(t, err.Error(), "bad indent")
}
