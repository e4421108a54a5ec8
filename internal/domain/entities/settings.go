package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultWorkers         = 8
	defaultProbeTimeout    = 30 * time.Second
	defaultDownloadTimeout = 2 * time.Minute
	defaultCacheTTL        = DefaultStalenessInterval
	defaultCacheSize       = 4096
	defaultRetryAttempts   = 3
	defaultRetryInitial    = 200 * time.Millisecond
	defaultRetryMax        = 5 * time.Second
	defaultRetryMultiplier = 2.0
	defaultLocalRepository = ".malaclypse/repository"
	localRepositoryName    = "local"
)

// Settings is the top-level configuration: where artifacts land locally,
// which repositories make up the chain, and the resolution defaults.
type Settings struct {
	LocalRepository string                 `yaml:"local_repository"`
	Repositories    []RepositoryDescriptor `yaml:"repositories"`
	Resolution      ResolutionSettings     `yaml:"resolution"`
}

// ResolutionSettings holds the defaults a ResolutionContext starts from.
type ResolutionSettings struct {
	Policy          ConflictPolicy `yaml:"policy"`
	Workers         int            `yaml:"workers"`
	QueueSize       int            `yaml:"queue_size"`
	ProbeTimeout    time.Duration  `yaml:"probe_timeout"`
	DownloadTimeout time.Duration  `yaml:"download_timeout"`
	CacheTTL        time.Duration  `yaml:"cache_ttl"`  // Lifetime of open-range solutions
	CacheSize       int            `yaml:"cache_size"` // Maximum number of cached open-range solutions
	Parts           []PartKind     `yaml:"parts"`      // Optional parts to download (sources, javadoc)
	Retry           RetrySettings  `yaml:"retry"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a configuration file, expanding environment
// variables and resolving credential file paths.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.LocalRepository = expandPath(settings.LocalRepository)
	for i := range settings.Repositories {
		settings.Repositories[i].Location = expandPath(settings.Repositories[i].Location)
		settings.Repositories[i].Credentials = resolveToken(settings.Repositories[i].Credentials)
	}
	settings.applyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}

	return &settings, nil
}

// DefaultSettings is used when no configuration file exists: a single
// local cache under the user's home directory.
func DefaultSettings() *Settings {
	settings := &Settings{}
	settings.applyDefaults()
	return settings
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".malaclypse.yaml",
		".malaclypse.yml",
		"malaclypse.yaml",
		"malaclypse.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Descriptor returns the repository with the given name.
func (it *Settings) Descriptor(name string) (RepositoryDescriptor, bool) {
	for _, d := range it.Repositories {
		if d.Name == name {
			return d, true
		}
	}
	return RepositoryDescriptor{}, false
}

func (it *Settings) applyDefaults() {
	if it.LocalRepository == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		it.LocalRepository = filepath.Join(home, defaultLocalRepository)
	}
	if len(it.Repositories) == 0 {
		it.Repositories = []RepositoryDescriptor{{
			Name:     localRepositoryName,
			Kind:     KindLocalCache,
			Location: it.LocalRepository,
		}}
	}
	for i := range it.Repositories {
		it.Repositories[i].applyDefaults()
	}

	r := &it.Resolution
	if r.Policy == "" {
		r.Policy = PolicyNearestWins
	}
	if r.Workers <= 0 {
		r.Workers = defaultWorkers
	}
	if r.QueueSize <= 0 {
		r.QueueSize = r.Workers * 4 //nolint:mnd // a few tasks per worker keeps submitters busy
	}
	if r.ProbeTimeout <= 0 {
		r.ProbeTimeout = defaultProbeTimeout
	}
	if r.DownloadTimeout <= 0 {
		r.DownloadTimeout = defaultDownloadTimeout
	}
	if r.CacheTTL <= 0 {
		r.CacheTTL = defaultCacheTTL
	}
	if r.CacheSize <= 0 {
		r.CacheSize = defaultCacheSize
	}
	if r.Retry.MaxAttempts <= 0 {
		r.Retry.MaxAttempts = defaultRetryAttempts
	}
	if r.Retry.InitialDelay <= 0 {
		r.Retry.InitialDelay = defaultRetryInitial
	}
	if r.Retry.MaxDelay <= 0 {
		r.Retry.MaxDelay = defaultRetryMax
	}
	if r.Retry.Multiplier <= 1 {
		r.Retry.Multiplier = defaultRetryMultiplier
	}
}

// expandPath expands ${VAR} references and a leading "~".
func expandPath(raw string) string {
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
	if strings.HasPrefix(resolved, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			resolved = filepath.Join(home, resolved[2:])
		}
	}
	return resolved
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read credentials file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read credentials from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(settings *Settings) error {
	names := make(map[string]int, len(settings.Repositories))
	for i, r := range settings.Repositories {
		if err := r.validate(i); err != nil {
			return err
		}
		if previous, ok := names[r.Name]; ok {
			return fmt.Errorf("repositories[%d].name %q duplicates repositories[%d]", i, r.Name, previous)
		}
		names[r.Name] = i
	}

	switch settings.Resolution.Policy {
	case PolicyNearestWins, PolicyHighestVersionWins:
	default:
		return fmt.Errorf("resolution.policy %q must be %s or %s",
			settings.Resolution.Policy, PolicyNearestWins, PolicyHighestVersionWins)
	}

	for i, kind := range settings.Resolution.Parts {
		if _, err := ParsePartKind(string(kind)); err != nil {
			return fmt.Errorf("resolution.parts[%d]: %w", i, err)
		}
	}

	return nil
}
