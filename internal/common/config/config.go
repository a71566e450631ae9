package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Storage struct {
	Driver    string `yaml:"driver"` // file | postgres | memory
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"` // postgres: one namespace per device
}

type DB struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"password"`
	Name string `yaml:"database"`
}

type MQ struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Pass     string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
}

type Tracking struct {
	Interval time.Duration `yaml:"interval"`
}

type App struct {
	API      API      `yaml:"api"`
	Storage  Storage  `yaml:"storage"`
	Database DB       `yaml:"database"`
	Rabbit   MQ       `yaml:"rabbitmq"`
	Tracking Tracking `yaml:"tracking"`
}

// Default returns a config usable without any file on disk.
func Default() App {
	return App{
		API:      API{BaseURL: "https://api.naijameals.com", Timeout: 15 * time.Second},
		Storage:  Storage{Driver: DriverFile, Path: defaultStoragePath(), Namespace: "default"},
		Database: DB{Port: 5432},
		Rabbit:   MQ{Port: 5672, VHost: "/", Exchange: "notifications_fanout"},
		Tracking: Tracking{Interval: 30 * time.Second},
	}
}

// Load reads a YAML file on top of Default, applies env overrides and validates.
// An empty path means "defaults + env only".
func Load(path string) (App, error) {
	a := Default()
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return App{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &a); err != nil {
			return App{}, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&a)
	a.Storage.Path = expandHome(a.Storage.Path)
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

func applyEnv(a *App) {
	if v := strings.TrimSpace(os.Getenv("NAIJA_API_URL")); v != "" {
		a.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NAIJA_STORAGE_PATH")); v != "" {
		a.Storage.Path = v
	}
}

func (a App) Validate() error {
	if strings.TrimSpace(a.API.BaseURL) == "" {
		return errors.New("invalid config: api.base_url is empty")
	}
	if a.API.Timeout < 0 {
		return errors.New("invalid config: api.timeout is negative")
	}
	switch a.Storage.Driver {
	case DriverFile:
		if a.Storage.Path == "" {
			return errors.New("invalid config: storage.path is required for the file driver")
		}
	case DriverPostgres:
		if a.Database.Host == "" || a.Database.Name == "" {
			return errors.New("invalid config: database host/name required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid config: unknown storage driver %q", a.Storage.Driver)
	}
	if a.Rabbit.Enabled && a.Rabbit.Host == "" {
		return errors.New("invalid config: rabbitmq.host is required when rabbitmq is enabled")
	}
	if a.Tracking.Interval <= 0 {
		return errors.New("invalid config: tracking.interval must be positive")
	}
	return nil
}

// FindConfig returns the first config file found in the usual places.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "config.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".naija-meals", "config.yaml"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}

// expandHome resolves a leading "~/" against the user's home directory.
func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".naija-meals", "storage.json")
	}
	return filepath.Join(home, ".naija-meals", "storage.json")
}
