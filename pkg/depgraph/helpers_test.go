package depgraph

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revdeps/pkg/manifest"
)

type deps = map[string]string

func mf(name, version string, dependencies, dev, peer deps) manifest.Manifest {
	return manifest.Manifest{
		Name:             name,
		Version:          version,
		Dependencies:     dependencies,
		DevDependencies:  dev,
		PeerDependencies: peer,
	}
}

func bufferLogger(t *testing.T) (*log.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}), &buf
}
