// Package scenario loads simulation worlds from disk.
//
// Two layouts are supported: the compact plain-text layout (ParseText) and a YAML
// layout with named fields (ParseYAML). Load picks one by file extension and
// validates the result, so a nil error means sim.NewSimulator will accept the world.
package scenario

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dispatchsim/dispatchsim/sim"
)

// Format names a scenario layout.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// FormatFor returns the layout implied by path's extension: .yaml/.yml is YAML,
// anything else is text.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatText
}

// Parse decodes and validates a scenario in the given layout.
func Parse(r io.Reader, format Format) (*sim.World, error) {
	var (
		world *sim.World
		err   error
	)
	switch format {
	case FormatYAML:
		world, err = ParseYAML(r)
	case FormatText, "":
		world, err = ParseText(r)
	default:
		return nil, fmt.Errorf("unknown scenario format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := world.Validate(); err != nil {
		return nil, err
	}
	return world, nil
}

// Load reads, parses and validates the scenario at path.
func Load(path string) (*sim.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	defer f.Close()

	format := FormatFor(path)
	world, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	logrus.Debugf("loaded %s scenario %s: %d warehouses, %d vehicles, %d events",
		format, path, len(world.Warehouses), len(world.Vehicles), len(world.Events))
	return world, nil
}
