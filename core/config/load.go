package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return LoadFs(afero.NewBasePathFs(afero.NewOsFs(), abs))
}

// LoadFs loads config.yaml from the root of fsys, other files named by the
// configuration are resolved in fsys too. Fields missing from the file keep
// their default values.
func LoadFs(fsys afero.Fs) (*Configuration, error) {
	configContents, err := afero.ReadFile(fsys, ConfigurationName)
	if err != nil {
		return nil, err
	}

	out := defaultConfig()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	out.configFs = fsys
	return out, nil
}
