package bench

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"tensorc/internal/dispatch"
)

// Scenario describes one stress run.
type Scenario struct {
	Name     string       `toml:"name" yaml:"name"`
	Dispatch DispatchSpec `toml:"dispatch" yaml:"dispatch"`
	Load     LoadSpec     `toml:"load" yaml:"load"`
}

// DispatchSpec shapes the method under test.
type DispatchSpec struct {
	Positions  int    `toml:"positions" yaml:"positions"`
	Types      int    `toml:"types" yaml:"types"`
	ExactEvery int    `toml:"exact_every" yaml:"exact_every"`
	Storage    string `toml:"storage" yaml:"storage"`
	Parallel   int    `toml:"parallel" yaml:"parallel"`
}

// LoadSpec shapes the concurrent traffic.
type LoadSpec struct {
	Workers int    `toml:"workers" yaml:"workers"`
	Invokes int    `toml:"invokes" yaml:"invokes"`
	Grow    int    `toml:"grow" yaml:"grow"`
	Seed    uint64 `toml:"seed" yaml:"seed"`
}

// Default is the scenario run when no file is given.
func Default() Scenario {
	return Scenario{
		Name: "default",
		Dispatch: DispatchSpec{
			Positions:  2,
			Types:      32,
			ExactEvery: 4,
			Storage:    "dense",
		},
		Load: LoadSpec{
			Workers: 8,
			Invokes: 20000,
			Grow:    16,
			Seed:    1,
		},
	}
}

var errScenario = errors.New("invalid scenario")

// Load reads a scenario from a .toml, .yaml or .yml file. Fields the file
// leaves out keep their Default values.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	sc := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &sc)
		if err != nil {
			return Scenario{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if !meta.IsDefined("dispatch") {
			return Scenario{}, fmt.Errorf("%s: missing [dispatch]: %w", path, errScenario)
		}
		if !meta.IsDefined("load") {
			return Scenario{}, fmt.Errorf("%s: missing [load]: %w", path, errScenario)
		}
		if und := meta.Undecoded(); len(und) > 0 {
			return Scenario{}, fmt.Errorf("%s: unknown key %s: %w", path, und[0], errScenario)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&sc); err != nil {
			return Scenario{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Scenario{}, fmt.Errorf("%s: unsupported scenario format (want .toml or .yaml)", path)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Validate checks ranges.
func (sc Scenario) Validate() error {
	d, l := sc.Dispatch, sc.Load
	switch {
	case d.Positions < 1 || d.Positions > 3:
		return fmt.Errorf("dispatch.positions must be 1..3, got %d: %w", d.Positions, errScenario)
	case d.Types < 1:
		return fmt.Errorf("dispatch.types must be positive: %w", errScenario)
	case d.ExactEvery < 0:
		return fmt.Errorf("dispatch.exact_every must not be negative: %w", errScenario)
	case d.Parallel < 0:
		return fmt.Errorf("dispatch.parallel must not be negative: %w", errScenario)
	case l.Workers < 1:
		return fmt.Errorf("load.workers must be positive: %w", errScenario)
	case l.Invokes < 0 || l.Grow < 0:
		return fmt.Errorf("load.invokes and load.grow must not be negative: %w", errScenario)
	}
	if _, err := dispatch.ParseStorage(d.Storage); err != nil {
		return fmt.Errorf("dispatch.storage: %w", err)
	}
	return nil
}
