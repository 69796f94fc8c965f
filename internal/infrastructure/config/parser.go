package config

import (
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/blockgraph/runtime/pkg/xerrors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// ParseManifest reads and validates the environment manifest at path,
// returning the raw (not yet built) document.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.NewParseError(path, 0, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, xerrors.NewParseError(path, extractLine(err), err)
	}

	if err := ValidateManifest(&m); err != nil {
		return nil, err
	}

	return &m, nil
}

// extractLine pulls the 1-based line number yaml.v3 embeds in its error
// message, or 0 if the message carries none.
func extractLine(err error) int {
	m := yamlLineRegex.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}
