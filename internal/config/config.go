package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Images      ImagesConfig      `yaml:"images"`
	Annotations AnnotationsConfig `yaml:"annotations"`
	Dataset     DatasetConfig     `yaml:"dataset"`
	DB          DBConfig          `yaml:"db"`
	Analytics   AnalyticsConfig   `yaml:"analytics"`
	MCP         MCPConfig         `yaml:"mcp"`
	Log         LogConfig         `yaml:"log"`

	// Space is set when running as a hosted HuggingFace Space.
	Space bool `yaml:"-"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ImagesConfig struct {
	Dir       string `yaml:"dir"`
	CacheSize int    `yaml:"cache_size"`
}

type AnnotationsConfig struct {
	Out string `yaml:"out"`
}

type DatasetConfig struct {
	// Enabled is derived: a dataset is used when no images dir is configured
	// or when running as a Space.
	Enabled  bool   `yaml:"-"`
	Endpoint string `yaml:"endpoint"`
	Repo     string `yaml:"repo"`
	Revision string `yaml:"revision"`
	CacheDir string `yaml:"cache_dir"`
	Token    string `yaml:"-"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type AnalyticsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	GeoLookup   bool   `yaml:"geo_lookup"`
	GeoEndpoint string `yaml:"geo_endpoint"`
}

type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
	// Transport is "http" to mount /mcp on the web server or "stdio" to
	// serve MCP on standard input and output instead of HTTP.
	Transport string `yaml:"transport"`
	Token     string `yaml:"-"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Defaults for a local run and for a hosted Space.
const (
	LocalHost = "127.0.0.1"
	LocalPort = 7620
	SpaceHost = "0.0.0.0"
	SpacePort = 7860
)

// Load reads configuration from an optional YAML file, environment
// variables and finally command-line flags, in increasing precedence.
func Load(args []string) (Config, error) {
	cfg := Config{
		Annotations: AnnotationsConfig{
			Out: "out.csv",
		},
		DB: DBConfig{
			Path: "annotator.db",
		},
		Analytics: AnalyticsConfig{
			Enabled:   true,
			GeoLookup: true,
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "http",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("ANNOTATOR_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := applyFlags(&cfg, args); err != nil {
		return Config{}, err
	}

	if cfg.MCP.Transport != "http" && cfg.MCP.Transport != "stdio" {
		return Config{}, fmt.Errorf("invalid MCP transport %q: must be http or stdio", cfg.MCP.Transport)
	}

	cfg.Space = os.Getenv("SPACE_ID") != ""
	cfg.Dataset.Enabled = cfg.Images.Dir == "" || cfg.Space

	if cfg.Server.Host == "" {
		cfg.Server.Host = LocalHost
		if cfg.Space {
			cfg.Server.Host = SpaceHost
		}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = LocalPort
		if cfg.Space {
			cfg.Server.Port = SpacePort
		}
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("ANNOTATOR_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ANNOTATOR_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid ANNOTATOR_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dir := os.Getenv("ANNOTATOR_IMAGES_DIR"); dir != "" {
		cfg.Images.Dir = dir
	}
	if out := os.Getenv("ANNOTATOR_OUT"); out != "" {
		cfg.Annotations.Out = out
	}
	if repo := os.Getenv("ANNOTATOR_DATASET_REPO"); repo != "" {
		cfg.Dataset.Repo = repo
	}
	if rev := os.Getenv("ANNOTATOR_DATASET_REVISION"); rev != "" {
		cfg.Dataset.Revision = rev
	}
	if dir := os.Getenv("ANNOTATOR_CACHE_DIR"); dir != "" {
		cfg.Dataset.CacheDir = dir
	}
	if token := os.Getenv("HF_TOKEN"); token != "" {
		cfg.Dataset.Token = token
	} else if token := os.Getenv("HUGGING_FACE_HUB_TOKEN"); token != "" {
		cfg.Dataset.Token = token
	}
	if dbPath := os.Getenv("ANNOTATOR_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if v := os.Getenv("ANNOTATOR_ANALYTICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ANNOTATOR_ANALYTICS_ENABLED: %w", err)
		}
		cfg.Analytics.Enabled = enabled
	}
	if v := os.Getenv("ANNOTATOR_GEO_LOOKUP"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ANNOTATOR_GEO_LOOKUP: %w", err)
		}
		cfg.Analytics.GeoLookup = enabled
	}
	if v := os.Getenv("ANNOTATOR_MCP_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ANNOTATOR_MCP_ENABLED: %w", err)
		}
		cfg.MCP.Enabled = enabled
	}
	if mode := os.Getenv("ANNOTATOR_MCP_TRANSPORT"); mode != "" {
		cfg.MCP.Transport = strings.ToLower(mode)
	}
	if token := os.Getenv("ANNOTATOR_MCP_TOKEN"); token != "" {
		cfg.MCP.Token = token
	}
	if level := os.Getenv("ANNOTATOR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if path := os.Getenv("ANNOTATOR_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}
	return nil
}

func applyFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("annotator", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	dir := fs.String("dir", "", "images directory (uses the remote dataset if not provided)")
	out := fs.String("out", "", "annotation CSV file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *dir != "" {
		cfg.Images.Dir = *dir
	}
	if *out != "" {
		cfg.Annotations.Out = *out
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
