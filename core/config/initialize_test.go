package config

import (
	"io/ioutil"
	"log"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ssh"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(ioutil.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("CreateRecording", func(t *testing.T) {
		fd, err := cfg.CreateRecording("session.cast")
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("OpenEventLog", func(t *testing.T) {
		fd, err := cfg.OpenEventLog()
		assert.Nil(t, err)
		fd.Close()

		fd, err = cfg.ReadEventLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("HostKeyPem", func(t *testing.T) {
		keyPem, err := cfg.HostKeyPem()
		assert.Nil(t, err)
		assert.Contains(t, string(keyPem), "BEGIN OPENSSH PRIVATE KEY")

		_, err = ssh.ParsePrivateKey(keyPem)
		assert.NoError(t, err)
	})
}

func TestInitializeFs_keepsExisting(t *testing.T) {
	fsys := afero.NewMemMapFs()
	custom := []byte("capture_limit: 10\n")
	assert.Nil(t, afero.WriteFile(fsys, ConfigurationName, custom, 0600))
	assert.Nil(t, afero.WriteFile(fsys, HostKeyName, []byte("key"), 0600))

	cfg, err := InitializeFs(fsys, log.New(ioutil.Discard, "", 0))
	assert.Nil(t, err)
	assert.Equal(t, 10, cfg.CaptureLimit)

	contents, err := afero.ReadFile(fsys, ConfigurationName)
	assert.Nil(t, err)
	assert.Equal(t, custom, contents)

	key, err := afero.ReadFile(fsys, HostKeyName)
	assert.Nil(t, err)
	assert.Equal(t, "key", string(key))
}
