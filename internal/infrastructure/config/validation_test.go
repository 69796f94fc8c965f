package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseManifest() *Manifest {
	return &Manifest{
		Version:       "1.0.0",
		Name:          "demo",
		Runtimes:      []RuntimeSpec{{Class: "PYTHON", URL: "local://runtime"}},
		Storages:      []StorageSpec{{URL: "memory://local"}},
		TargetStorage: "memory://local",
		Pipes: []PipeSpec{
			{Key: "extract", Output: &ParamSpec{Name: "out", Type: "RecordsList[T1]"}, CompatibleRuntimes: []string{"PYTHON"}},
		},
		Nodes: []NodeSpec{
			{Key: "n1", PipeKey: "extract"},
		},
	}
}

func TestValidateManifestAccepts(t *testing.T) {
	require.NoError(t, ValidateManifest(baseManifest()))
}

func TestValidateManifestRejectsDuplicatePipeKey(t *testing.T) {
	m := baseManifest()
	m.Pipes = append(m.Pipes, m.Pipes[0])

	err := ValidateManifest(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate pipe key")
}

func TestValidateManifestRejectsDuplicateNodeKey(t *testing.T) {
	m := baseManifest()
	m.Nodes = append(m.Nodes, m.Nodes[0])

	err := ValidateManifest(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node key")
}

func TestValidateManifestRejectsUnknownPipeReference(t *testing.T) {
	m := baseManifest()
	m.Nodes[0].PipeKey = "nonexistent"

	err := ValidateManifest(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pipe")
}

func TestValidateManifestRejectsMisdirectedSelfRef(t *testing.T) {
	m := baseManifest()
	m.Nodes = append(m.Nodes, NodeSpec{
		Key:     "n2",
		PipeKey: "extract",
		Inputs:  map[string]string{"this": "n1"},
	})

	err := ValidateManifest(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-ref")
}

func TestValidateManifestAcceptsSelfRefPointingAtOwnKey(t *testing.T) {
	m := baseManifest()
	m.Nodes[0].Inputs = map[string]string{"this": "n1"}

	require.NoError(t, ValidateManifest(m))
}

func TestValidateManifestRejectsInvalidSemver(t *testing.T) {
	m := baseManifest()
	m.Version = "not-a-version"

	require.Error(t, ValidateManifest(m))
}
