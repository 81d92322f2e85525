package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/byxorna/orderpane/pkg/runtime"
	"github.com/go-playground/validator"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

type BackendType string

const (
	BackendSanity BackendType = "sanity"
	BackendFS     BackendType = "fs"
	BackendSQLite BackendType = "sqlite"

	TokenEnv  = "SANITY_TOKEN"
	TokenFile = "sanity_token"
)

var (
	ErrNoToken = errors.New("no sanity token configured")

	// Default is the configuration used when no file exists, and the base
	// every config file is layered over
	Default = Config{
		Backend: BackendFS,
		Sanity: SanityConfig{
			Dataset:    "production",
			APIVersion: "2025-01-12",
			RateLimit:  10,
			Burst:      5,
		},
		FS:     FSConfig{Path: "~/.orderpane.d/dataset.yaml"},
		SQLite: SQLiteConfig{Path: "~/.orderpane.d/orderpane.db"},
		Studio: StudioConfig{BaseURL: "http://localhost:3333"},
		Autoscroll: AutoscrollConfig{
			EdgeRows:      2,
			MinSpeed:      1,
			MaxSpeed:      3,
			FrameInterval: 60 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
		Panes: []Pane{
			{
				Type:         "project",
				Title:        "Projects",
				Projection:   `name, slug, "coverImageUrl": coverImage.asset->url`,
				LabelField:   "name",
				SearchFields: []string{"name", "slug"},
				ImageField:   "coverImageUrl",
				EditPath:     "/structure/all-projects;{{ .BaseID }}",
			},
		},
	}
)

type Config struct {
	Backend    BackendType      `yaml:"backend" validate:"required,oneof=sanity fs sqlite"`
	Sanity     SanityConfig     `yaml:"sanity"`
	FS         FSConfig         `yaml:"fs"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Studio     StudioConfig     `yaml:"studio"`
	Autoscroll AutoscrollConfig `yaml:"autoscroll"`
	Log        LogConfig        `yaml:"log"`
	Panes      []Pane           `yaml:"panes" validate:"required,min=1,unique=Type,dive"`
}

type SanityConfig struct {
	ProjectID  string  `yaml:"projectId"`
	Dataset    string  `yaml:"dataset"`
	APIVersion string  `yaml:"apiVersion"`
	Token      string  `yaml:"token,omitempty"`
	BaseURL    string  `yaml:"baseUrl,omitempty" validate:"omitempty,url"`
	RateLimit  float64 `yaml:"rateLimit" validate:"gte=0"`
	Burst      int     `yaml:"burst" validate:"gte=0"`
}

type FSConfig struct {
	Path string `yaml:"path"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// StudioConfig is where editor paths are opened.
type StudioConfig struct {
	BaseURL string `yaml:"baseUrl" validate:"omitempty,url"`
	Browser string `yaml:"browser,omitempty"`
}

// AutoscrollConfig tunes drag autoscroll. Speeds are rows per frame.
type AutoscrollConfig struct {
	EdgeRows      int           `yaml:"edgeRows" validate:"gte=1"`
	MinSpeed      int           `yaml:"minSpeed" validate:"gte=1"`
	MaxSpeed      int           `yaml:"maxSpeed" validate:"gtefield=MinSpeed"`
	FrameInterval time.Duration `yaml:"frameInterval" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File  string `yaml:"file,omitempty"`
}

// Pane describes one orderable document type. Everything the ordering code
// knows about a type comes from here.
type Pane struct {
	Type         string   `yaml:"type" validate:"required"`
	Title        string   `yaml:"title" validate:"required"`
	Projection   string   `yaml:"projection,omitempty"`
	LabelField   string   `yaml:"labelField,omitempty"`
	SearchFields []string `yaml:"searchFields,omitempty" validate:"unique"`
	ImageField   string   `yaml:"imageField,omitempty"`
	EditPath     string   `yaml:"editPath,omitempty"`
}

func NewFromReader(r io.Reader) (*Config, error) {
	c := Default

	bytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read Config: %w", err)
	}
	err = yaml.Unmarshal(bytes, &c)
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal Config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &c, nil
}

// Load reads the config at path. A missing file yields Default.
func Load(path string) (*Config, error) {
	expandedPath, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expandedPath)
	if os.IsNotExist(err) {
		c := Default
		return &c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", expandedPath, err)
	}
	defer f.Close()

	return NewFromReader(f)
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Backend == BackendSanity {
		if c.Sanity.ProjectID == "" || c.Sanity.Dataset == "" || c.Sanity.APIVersion == "" {
			return fmt.Errorf("backend %s needs sanity.projectId, sanity.dataset and sanity.apiVersion", c.Backend)
		}
	}
	return nil
}

// Pane finds a configured pane by type or (case-insensitive) title. An
// empty name picks the first pane.
func (c Config) Pane(name string) (Pane, error) {
	if name == "" {
		return c.Panes[0], nil
	}
	for _, p := range c.Panes {
		if p.Type == name || strings.EqualFold(p.Title, name) {
			return p, nil
		}
	}
	return Pane{}, fmt.Errorf("no pane named %q", name)
}

// SanityToken resolves the API token from the config file, then the
// environment, then the xdg runtime token file.
func (c Config) SanityToken() (string, error) {
	if t := strings.TrimSpace(c.Sanity.Token); t != "" {
		return t, nil
	}
	if t := strings.TrimSpace(os.Getenv(TokenEnv)); t != "" {
		return t, nil
	}
	fname, err := runtime.File(TokenFile)
	if err != nil {
		return "", fmt.Errorf("unable to determine token file: %w", err)
	}
	b, err := os.ReadFile(fname)
	if err != nil {
		return "", fmt.Errorf("%w (set %s or write %s)", ErrNoToken, TokenEnv, fname)
	}
	if t := strings.TrimSpace(string(b)); t != "" {
		return t, nil
	}
	return "", ErrNoToken
}
