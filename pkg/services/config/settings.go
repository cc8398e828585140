package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "BACKCOUNTRY"
	ConfigName     = "backcountry"
	DefaultUA      = "Mozilla/5.0 (compatible; BackcountryBot/0.1; +https://example.com/bot)"
	DefaultTimeout = 20 * time.Second
)

// DefaultSources is the order in which sources are registered and run.
var DefaultSources = []string{"snowforecast", "mountainforecast", "powdersearch"}

type FetchSettings struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RetryMax          int           `mapstructure:"retry_max"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

type ArchiveSettings struct {
	Path string `mapstructure:"path"`
}

type PublishSettings struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

type ServerSettings struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Settings is the resolved project layout and runtime configuration. All
// directory fields are absolute once Load returns.
type Settings struct {
	Root             string          `mapstructure:"root"`
	DataDir          string          `mapstructure:"data_dir"`
	LogDir           string          `mapstructure:"log_dir"`
	ReportsDir       string          `mapstructure:"reports_dir"`
	TemplatesDir     string          `mapstructure:"templates_dir"`
	MountainsFile    string          `mapstructure:"mountains_file"`
	Sources          []string        `mapstructure:"sources"`
	Workers          int             `mapstructure:"workers"`
	Offline          bool            `mapstructure:"-"`
	OfflineSampleDir string          `mapstructure:"offline_sample_dir"`
	Fetch            FetchSettings   `mapstructure:"fetch"`
	Archive          ArchiveSettings `mapstructure:"archive"`
	Publish          PublishSettings `mapstructure:"publish"`
	Server           ServerSettings  `mapstructure:"server"`
}

type LoadOptions struct {
	// Root overrides BACKCOUNTRY_ROOT and the working directory.
	Root string
	// ConfigFile is read instead of <root>/backcountry.yaml when set.
	ConfigFile string
}

// Load resolves the project root, reads <root>/.env without overriding the
// process environment, then layers defaults, the config file and
// BACKCOUNTRY_* variables.
func Load(opts LoadOptions) (*Settings, error) {
	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(root)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	s.Root = root
	s.Offline = offlineFlag(v.GetString("offline"))
	s.resolvePaths()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("reports_dir", "reports")
	v.SetDefault("templates_dir", "templates")
	v.SetDefault("mountains_file", "mountains.json")
	v.SetDefault("sources", DefaultSources)
	v.SetDefault("workers", 4)
	v.SetDefault("offline", "")
	v.SetDefault("offline_sample_dir", "local_samples")
	v.SetDefault("fetch.timeout", DefaultTimeout)
	v.SetDefault("fetch.user_agent", DefaultUA)
	v.SetDefault("fetch.retry_max", 2)
	v.SetDefault("fetch.requests_per_second", 1.0)
	v.SetDefault("archive.path", "data/forecasts.duckdb")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.prefix", "reports/")
	v.SetDefault("publish.region", "")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
}

// offlineFlag treats any non-empty value as set. A literal false is the one
// exception so a config file can turn the flag off.
func offlineFlag(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw != "" && !strings.EqualFold(raw, "false")
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = os.Getenv(EnvPrefix + "_ROOT")
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root %q: %w", root, err)
	}
	return abs, nil
}

func (s *Settings) resolvePaths() {
	for _, p := range []*string{
		&s.DataDir, &s.LogDir, &s.ReportsDir, &s.TemplatesDir,
		&s.MountainsFile, &s.OfflineSampleDir, &s.Archive.Path,
	} {
		*p = s.abs(*p)
	}
}

func (s *Settings) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Root, p)
}

func (s *Settings) Validate() error {
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if s.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", s.Fetch.Timeout)
	}
	if s.Fetch.RetryMax < 0 {
		return fmt.Errorf("fetch.retry_max must not be negative, got %d", s.Fetch.RetryMax)
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	return nil
}

// EnsureDirectories creates the data and log directories plus any extras.
func (s *Settings) EnsureDirectories(extra ...string) error {
	for _, dir := range append([]string{s.DataDir, s.LogDir}, extra...) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CronLogPath is the append-only log scheduled runs redirect into.
func (s *Settings) CronLogPath() string {
	return filepath.Join(s.LogDir, "cron.log")
}
