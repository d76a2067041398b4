// Package isa selects the backend.Capabilities of the compilation target.
package isa

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/faddat/wazero/internal/engine/wazevo/backend"
	"github.com/faddat/wazero/internal/engine/wazevo/backend/isa/arm64"
	"github.com/faddat/wazero/internal/engine/wazevo/backend/targetdesc"
)

// ErrUnknownTarget is returned by Select when the target has no capabilities.
var ErrUnknownTarget = errors.New("unknown target")

//go:embed descriptions/*.yaml
var descriptions embed.FS

// Config configures Select.
type Config struct {
	// Name is the target name. Empty means runtime.GOARCH.
	Name string
	// DescriptionPath is a YAML target description which takes precedence over Name.
	DescriptionPath string
	// ScalarOnly drops the vector capabilities even if the target has them.
	ScalarOnly bool
	// Logger receives debug logs. Nil discards them.
	Logger *log.Logger
}

// builtins are the targets implemented in Go.
var builtins = map[string]func() backend.Capabilities{
	"arm64": arm64.NewCapabilities,
}

// Names returns the names of the targets Select knows without a description file.
func Names() []string {
	var ret []string
	for name := range builtins {
		ret = append(ret, name)
	}
	entries, err := descriptions.ReadDir("descriptions")
	if err != nil {
		// The directory is embedded, so this only fails if the go:embed pattern changes.
		panic("BUG: cannot list embedded descriptions: " + err.Error())
	}
	for _, e := range entries {
		ret = append(ret, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(ret)
	return ret
}

// Select returns the capabilities of the target described by cfg.
// It is meant to be called once per target at configuration time, and the result
// is shared by all the passes.
func Select(cfg Config) (backend.Capabilities, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	caps, name, err := selectCapabilities(cfg)
	if err != nil {
		return backend.Capabilities{}, err
	}
	if err = backend.ValidateJumpBuf(caps.Scalar()); err != nil {
		return backend.Capabilities{}, fmt.Errorf("target %s: %w", name, err)
	}
	if cfg.ScalarOnly {
		caps = backend.ScalarOnly(caps.Scalar())
	}
	logger.Debug("target selected", "name", name, "kind", caps.Kind())
	return caps, nil
}

func selectCapabilities(cfg Config) (backend.Capabilities, string, error) {
	if cfg.DescriptionPath != "" {
		d, err := targetdesc.LoadFile(cfg.DescriptionPath)
		if err != nil {
			return backend.Capabilities{}, "", err
		}
		caps, err := d.Capabilities()
		return caps, d.Name, err
	}

	name := cfg.Name
	if name == "" {
		name = runtime.GOARCH
	}
	if newCaps, ok := builtins[name]; ok {
		return newCaps(), name, nil
	}

	f, err := descriptions.Open("descriptions/" + name + ".yaml")
	if err != nil {
		return backend.Capabilities{}, "", fmt.Errorf("%w: %q (known: %s)", ErrUnknownTarget, name, strings.Join(Names(), ", "))
	}
	defer f.Close()

	d, err := targetdesc.Load(f)
	if err != nil {
		return backend.Capabilities{}, "", fmt.Errorf("builtin description %s: %w", name, err)
	}
	caps, err := d.Capabilities()
	return caps, name, err
}
