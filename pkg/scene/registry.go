package scene

import (
	"sort"

	"github.com/pkg/errors"
)

// builtins maps scene IDs to their constructors
var builtins = map[string]struct {
	description string
	create      func() (*Scene, error)
}{
	"default":    {"Glossy, metal and glass spheres in a blue corner under a large light", NewDefaultScene},
	"ground":     {"A single huge diffuse sphere acting as the ground", NewGroundScene},
	"light":      {"A single emitting sphere", NewLightScene},
	"lit-sphere": {"A diffuse sphere under a spherical area light", NewLitSphereScene},
}

// BuiltinNames returns the IDs of all built-in scenes, sorted
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName creates a built-in scene, applying any non-zero overrides
func ByName(name string, overrides ...SamplingConfig) (*Scene, error) {
	builtin, ok := builtins[name]
	if !ok {
		return nil, errors.Errorf("unknown scene %q (available: %v)", name, BuiltinNames())
	}

	s, err := builtin.create()
	if err != nil {
		return nil, errors.Wrapf(err, "building scene %q", name)
	}
	for _, override := range overrides {
		if err := s.Override(override); err != nil {
			return nil, err
		}
	}
	return s, nil
}
