package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io/fs"
	"log"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
)

// Initialize writes the default configuration and a host key into dir, then
// loads it. Files that already exist are left alone.
func Initialize(dir string, logger *log.Logger) (*Configuration, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	fsys := afero.NewBasePathFs(afero.NewOsFs(), abs)
	if err := fsys.MkdirAll("/", 0700); err != nil {
		return nil, err
	}

	logger.Printf("Initializing configuration in %s", abs)
	return InitializeFs(fsys, logger)
}

// InitializeFs is Initialize for an arbitrary filesystem.
func InitializeFs(fsys afero.Fs, logger *log.Logger) (*Configuration, error) {
	if err := writeIfMissing(fsys, ConfigurationName, defaultConfigData, logger); err != nil {
		return nil, err
	}

	cfg, err := LoadFs(fsys)
	if err != nil {
		return nil, err
	}

	if keyFile := cfg.SSH.HostKeyFile; keyFile != "" {
		exists, err := afero.Exists(fsys, keyFile)
		switch {
		case err != nil:
			return nil, err
		case exists:
			logger.Printf("- %s exists, skipping", keyFile)
		default:
			logger.Printf("- Generating ed25519 host key %s", keyFile)
			keyPem, err := generateHostKey()
			if err != nil {
				return nil, err
			}
			if err := afero.WriteFile(fsys, keyFile, keyPem, 0600); err != nil {
				return nil, err
			}
		}
	}

	if cfg.RecordingsDir != "" {
		logger.Printf("- Creating %s", cfg.RecordingsDir)
		if err := fsys.MkdirAll(cfg.RecordingsDir, 0700); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func writeIfMissing(fsys afero.Fs, name string, contents []byte, logger *log.Logger) error {
	_, err := fsys.Stat(name)
	switch {
	case err == nil:
		logger.Printf("- %s exists, skipping", name)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	logger.Printf("- Writing %s", name)
	return afero.WriteFile(fsys, name, contents, 0600)
}

// generateHostKey returns a new ed25519 key in OpenSSH PEM form.
func generateHostKey() ([]byte, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	block, err := ssh.MarshalPrivateKey(key, "jbox host key")
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(block), nil
}
