package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable and dotenv keys holding the credentials.
const (
	EnvUsername = "HITSZ_USERNAME"
	EnvPassword = "HITSZ_PASSWORD"

	// bareUsername and barePassword are accepted from a config file only.
	// They are never read from the process environment, where USERNAME
	// is the login name of the OS user on some platforms.
	bareUsername = "USERNAME"
	barePassword = "PASSWORD"
)

// DefaultConfigPaths returns the locations searched when no config path is
// given on the command line. The first existing file wins.
func DefaultConfigPaths() []string {
	paths := []string{
		filepath.Join(XDGConfigDir(), ".env"),
		filepath.Join(XDGConfigDir(), "config.yaml"),
		filepath.Join("/etc", AppName, ".env"),
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	return paths
}

// FindConfigFile resolves the config file to load.
//
// If explicit is non-empty it must exist, otherwise ErrConfigNotFound is
// returned. Without an explicit path the candidates are tried in order and
// the first existing one is returned; an empty string with a nil error
// means none exists.
func FindConfigFile(explicit string, candidates []string) (string, error) {
	if explicit != "" {
		path := expandHome(explicit)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return path, nil
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// File is the YAML configuration file layout.
// Every field is optional; zero values keep the defaults.
type File struct {
	Username string        `yaml:"username,omitempty"`
	Password string        `yaml:"password,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`

	Portal struct {
		URL              string `yaml:"url,omitempty"`
		UsernameSelector string `yaml:"username_selector,omitempty"`
		PasswordSelector string `yaml:"password_selector,omitempty"`
		SubmitSelector   string `yaml:"submit_selector,omitempty"`
		UserAgent        string `yaml:"user_agent,omitempty"`
	} `yaml:"portal,omitempty"`

	Probe struct {
		URL         string        `yaml:"url,omitempty"`
		URLMarkers  []string      `yaml:"url_markers,omitempty"`
		BodyMarkers []string      `yaml:"body_markers,omitempty"`
		Timeout     time.Duration `yaml:"timeout,omitempty"`
	} `yaml:"probe,omitempty"`

	Browser struct {
		CacheDir              string `yaml:"cache_dir,omitempty"`
		VersionMismatchMarker string `yaml:"version_mismatch_marker,omitempty"`
	} `yaml:"browser,omitempty"`
}

// LoadFile reads path into cfg. Files ending in .yaml or .yml are parsed as
// YAML, anything else as a dotenv key-value file.
func LoadFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := loadYAML(path, cfg); err != nil {
			return err
		}
	default:
		if err := loadDotenv(path, cfg); err != nil {
			return err
		}
	}
	cfg.ConfigFilePath = path
	return nil
}

// ApplyEnv overrides the credentials with HITSZ_USERNAME and HITSZ_PASSWORD
// when they are set in the environment. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvUsername); ok && v != "" {
		cfg.Credentials.Username = v
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		cfg.Credentials.Password = v
	}
}

// loadDotenv reads a dotenv file without touching the process environment.
func loadDotenv(path string, cfg *Config) error {
	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Credentials.Username = firstNonEmpty(values[EnvUsername], values[bareUsername])
	cfg.Credentials.Password = firstNonEmpty(values[EnvPassword], values[barePassword])
	return nil
}

// loadYAML reads a YAML file and overlays its non-zero fields on cfg.
func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	f.apply(cfg)
	return nil
}

// apply copies the non-zero fields of f into cfg.
func (f *File) apply(cfg *Config) {
	setString(&cfg.Credentials.Username, f.Username)
	setString(&cfg.Credentials.Password, f.Password)
	if f.Interval > 0 {
		cfg.Interval = f.Interval
	}

	setString(&cfg.PortalURL, f.Portal.URL)
	setString(&cfg.UsernameSelector, f.Portal.UsernameSelector)
	setString(&cfg.PasswordSelector, f.Portal.PasswordSelector)
	setString(&cfg.SubmitSelector, f.Portal.SubmitSelector)
	setString(&cfg.UserAgent, f.Portal.UserAgent)

	setString(&cfg.CheckURL, f.Probe.URL)
	if len(f.Probe.URLMarkers) > 0 {
		cfg.URLMarkers = f.Probe.URLMarkers
	}
	if len(f.Probe.BodyMarkers) > 0 {
		cfg.BodyMarkers = f.Probe.BodyMarkers
	}
	if f.Probe.Timeout > 0 {
		cfg.ProbeTimeout = f.Probe.Timeout
	}

	setString(&cfg.BrowserCacheDir, expandHome(f.Browser.CacheDir))
	setString(&cfg.VersionMismatchMarker, f.Browser.VersionMismatchMarker)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
