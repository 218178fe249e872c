package config

import (
	"crypto/subtle"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	HostKeyName       = "host_key"
)

// Configuration holds the settings shared by every interpreter jbox starts.
type Configuration struct {
	configFs afero.Fs

	Prompt           string   `json:"prompt"`
	HistoryFile      string   `json:"history_file"`
	HistoryLimit     int      `json:"history_limit" validate:"gte=0"`
	BinDir           string   `json:"bin_dir"`
	EnvFile          string   `json:"env_file"`
	RegistryCapacity int      `json:"registry_capacity" validate:"gte=1"`
	CaptureLimit     int      `json:"capture_limit" validate:"gte=0"`
	KillGrace        Duration `json:"kill_grace" validate:"gte=0"`
	EventLog         string   `json:"event_log"`
	RecordingsDir    string   `json:"recordings_dir"`
	Debug            bool     `json:"debug"`

	SSH SSH `json:"ssh"`
}

// SSH configures `jbox serve`.
type SSH struct {
	Port             int      `json:"port" validate:"gte=0,lte=65535"`
	HostKeyFile      string   `json:"host_key_file"`
	Passwords        []string `json:"passwords" validate:"unique,dive,required"`
	AllowAnyPassword bool     `json:"allow_any_password"`
	// OutputRate is in bytes per second.
	OutputRate int `json:"output_rate" validate:"gte=0"`
}

// Duration is a time.Duration written as a string, e.g. "2s".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// OpenEventLog opens the event log in an append only state. It returns nil
// without an error when the event log is disabled.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, nil
	}
	return c.fs().OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	if c.EventLog == "" {
		return nil, fmt.Errorf("event_log is disabled in %s", ConfigurationName)
	}
	return c.fs().OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

// CreateRecording creates a session recording with the given name. It
// returns nil without an error when recording is disabled.
func (c *Configuration) CreateRecording(name string) (afero.File, error) {
	if c.RecordingsDir == "" {
		return nil, nil
	}
	if err := c.fs().MkdirAll(c.RecordingsDir, 0700); err != nil {
		return nil, err
	}
	return c.fs().Create(filepath.Join(c.RecordingsDir, name))
}

// HostKeyPem returns the bytes of the SSH host key, or nil if none is
// configured.
func (c *Configuration) HostKeyPem() ([]byte, error) {
	if c.SSH.HostKeyFile == "" {
		return nil, nil
	}
	return afero.ReadFile(c.fs(), c.SSH.HostKeyFile)
}

// KillGraceDuration returns the configured grace as a time.Duration.
func (c *Configuration) KillGraceDuration() time.Duration {
	return time.Duration(c.KillGrace)
}

// ValidPassword reports whether password may log in.
func (c *Configuration) ValidPassword(password string) bool {
	if c.SSH.AllowAnyPassword {
		return true
	}

	valid := false
	for _, allowed := range c.SSH.Passwords {
		if subtle.ConstantTimeCompare([]byte(password), []byte(allowed)) == 1 {
			valid = true
		}
	}
	return valid
}

// ExpandHome replaces a leading ~ in path with home.
func ExpandHome(path, home string) string {
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	default:
		return path
	}
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

// Default returns the built in configuration used when no config directory
// exists. It writes no files: the event log, recordings and host key file
// are disabled.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewMemMapFs()
	out.EventLog = ""
	out.RecordingsDir = ""
	out.SSH.HostKeyFile = ""
	return out
}
