package manifest

import (
	"encoding/json"
	"maps"

	"github.com/matzehuels/revdeps/pkg/errors"
)

// Kind names the manifest bucket a dependency was declared in.
type Kind string

const (
	KindDependencies     Kind = "dependencies"
	KindDevDependencies  Kind = "devDependencies"
	KindPeerDependencies Kind = "peerDependencies"
)

// Kinds lists every bucket in processing order. When a dependent appears in
// more than one bucket for the same dependency, the later bucket wins.
var Kinds = []Kind{KindDependencies, KindDevDependencies, KindPeerDependencies}

// String returns the bucket name as it appears in package.json.
func (k Kind) String() string { return string(k) }

// ParseKind converts a bucket name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown dependency kind %q", s)
}

// Manifest is a raw package record: identity plus declared dependencies.
// Bucket maps go from dependency name to the raw version range string.
type Manifest struct {
	Name             string            `json:"name" bson:"name"`
	Version          string            `json:"version" bson:"version"`
	Dependencies     map[string]string `json:"dependencies,omitempty" bson:"dependencies,omitempty"`
	DevDependencies  map[string]string `json:"devDependencies,omitempty" bson:"devDependencies,omitempty"`
	PeerDependencies map[string]string `json:"peerDependencies,omitempty" bson:"peerDependencies,omitempty"`

	// Source records where the manifest was loaded from (file path, document ID).
	Source string `json:"-" bson:"-"`
}

// New creates a manifest with empty buckets.
// It returns an INVALID_MANIFEST error if name or version is empty.
func New(name, version string) (*Manifest, error) {
	m := &Manifest{
		Name:             name,
		Version:          version,
		Dependencies:     map[string]string{},
		DevDependencies:  map[string]string{},
		PeerDependencies: map[string]string{},
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes a package.json document. Unknown fields are ignored.
// The result is not validated; callers decide whether a nameless manifest
// is an error.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode package.json")
	}
	return m, nil
}

// Validate reports whether the manifest can participate in the index.
func (m *Manifest) Validate() error {
	switch {
	case m.Name == "" && m.Version == "":
		return errors.New(errors.ErrCodeInvalidManifest, "manifest %s has no name and no version", m.describe())
	case m.Name == "":
		return errors.New(errors.ErrCodeInvalidManifest, "manifest %s has no name", m.describe())
	case m.Version == "":
		return errors.New(errors.ErrCodeInvalidManifest, "manifest %q has no version", m.Name)
	}
	return nil
}

// Bucket returns the declarations for kind. The result is never nil and
// must not be modified.
func (m *Manifest) Bucket(kind Kind) map[string]string {
	var b map[string]string
	switch kind {
	case KindDependencies:
		b = m.Dependencies
	case KindDevDependencies:
		b = m.DevDependencies
	case KindPeerDependencies:
		b = m.PeerDependencies
	}
	if b == nil {
		return map[string]string{}
	}
	return b
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() Manifest {
	c := *m
	c.Dependencies = maps.Clone(m.Dependencies)
	c.DevDependencies = maps.Clone(m.DevDependencies)
	c.PeerDependencies = maps.Clone(m.PeerDependencies)
	return c
}

func (m *Manifest) describe() string {
	if m.Source != "" {
		return m.Source
	}
	return "<unknown>"
}
