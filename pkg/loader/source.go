package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/revdeps/pkg/manifest"
)

// Source loads a set of manifests.
type Source interface {
	Load(ctx context.Context) ([]manifest.Manifest, error)
	String() string
}

// Static is a Source backed by a fixed slice.
type Static struct {
	Name      string
	Manifests []manifest.Manifest
}

// Load returns a copy of the slice.
func (s Static) Load(ctx context.Context) ([]manifest.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]manifest.Manifest, len(s.Manifests))
	for i := range s.Manifests {
		out[i] = s.Manifests[i].Clone()
		if out[i].Source == "" {
			out[i].Source = fmt.Sprintf("%s[%d]", s.String(), i)
		}
	}
	return out, nil
}

func (s Static) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "static"
}

func discard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}
