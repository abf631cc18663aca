package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wyfcoding/optionpricing/xerrors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	conf := Default()
	conf.Simulation.Paths = 0
	if err := Validate(conf); !errors.Is(err, xerrors.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	conf = Default()
	conf.LSM.Basis = "chebyshev"
	if err := Validate(conf); err == nil {
		t.Error("expected unknown basis to fail validation")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	content := `
version = "1.2.0"

[simulation]
paths = 5000
seed = 7

[lsm]
basis = "laguerre"
degree = 3
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPTPRICING_LATTICE_STEPS", "400")

	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Version != "1.2.0" || conf.Simulation.Paths != 5000 || conf.Simulation.Seed != 7 {
		t.Errorf("file values not applied: %+v", conf.Simulation)
	}
	if conf.Simulation.Steps != Default().Simulation.Steps {
		t.Errorf("missing key should fall back to default, got %d", conf.Simulation.Steps)
	}
	if conf.LSM.Basis != "laguerre" || conf.LSM.Degree != 3 {
		t.Errorf("lsm section not applied: %+v", conf.LSM)
	}
	if conf.Lattice.Steps != 400 {
		t.Errorf("env override not applied, got %d", conf.Lattice.Steps)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoggingConfig(t *testing.T) {
	conf := Default()
	conf.Log.Level = "debug"
	lc := conf.LoggingConfig("optionpricing", "engine")
	if lc.Service != "optionpricing" || lc.Module != "engine" || lc.Level != "debug" {
		t.Errorf("unexpected logging config %+v", lc)
	}
}
