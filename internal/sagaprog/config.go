// Public domain.

package sagaprog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/sagasurvey/saga/catalog"
	"github.com/sagasurvey/saga/sdss"
	"github.com/sagasurvey/saga/site"
	"github.com/sagasurvey/saga/spectra"
)

// Config is the saga configuration file.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	// Spectra maps a telescope to its default data path.
	Spectra  map[string]string     `yaml:"spectra"`
	Sites    map[string]SiteConfig `yaml:"sites"`
	SDSS     SDSSConfig            `yaml:"sdss"`
	WISE     WISEConfig            `yaml:"wise"`
	Download DownloadConfig        `yaml:"download"`
}

// DatabaseConfig locates catalog files.  Table paths are relative to Root.
type DatabaseConfig struct {
	Root   string            `yaml:"root"`
	Tables map[string]string `yaml:"tables"`
}

// SiteConfig is an observatory by geodetic latitude and east longitude in
// degrees and height in meters.
type SiteConfig struct {
	Lat    float64 `yaml:"lat"`
	Lon    float64 `yaml:"lon"`
	Height float64 `yaml:"height"`
}

type SDSSConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Context      string        `yaml:"context"`
	Token        string        `yaml:"token"`
	UsePortal    bool          `yaml:"use_portal"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type WISEConfig struct {
	BaseURL string `yaml:"base_url"`
}

type DownloadConfig struct {
	MinSize  int64   `yaml:"min_size"`
	Compress bool    `yaml:"compress"`
	Radius   float64 `yaml:"radius"` // degrees
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Root: ".",
			Tables: map[string]string{
				"hosts_no_flags":      "hosts/host_list_no_flags.fits.gz",
				"hosts_no_sdss_flags": "hosts/host_list_no_sdss_flags.fits.gz",
				"hosts_named":         "hosts/named_hosts.csv",
			},
		},
		SDSS: SDSSConfig{
			BaseURL:      sdss.DefaultBaseURL,
			Context:      "DR14",
			PollInterval: 10 * time.Second,
		},
		WISE: WISEConfig{BaseURL: sdss.DefaultWiseURL},
		Download: DownloadConfig{
			MinSize:  sdss.DefaultMinSize,
			Compress: true,
			Radius:   sdss.DefaultRadius.Deg(),
		},
	}
}

// LoadConfig reads a YAML config file over the defaults.  ${VAR}
// references are replaced from the environment.  An empty path returns
// the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Database.Root == "" {
		return fmt.Errorf("database.root is required")
	}
	for key, p := range c.Database.Tables {
		if p == "" {
			return fmt.Errorf("database.tables.%s: empty path", key)
		}
	}
	known := map[string]bool{}
	for _, t := range spectra.Telescopes {
		known[t] = true
	}
	for t := range c.Spectra {
		if !known[strings.ToLower(t)] {
			return fmt.Errorf("spectra: unknown telescope %q", t)
		}
	}
	for name, s := range c.Sites {
		if s.Lat < -90 || s.Lat > 90 {
			return fmt.Errorf("sites.%s: latitude %g out of range", name, s.Lat)
		}
		if s.Lon < -360 || s.Lon > 360 {
			return fmt.Errorf("sites.%s: longitude %g out of range", name, s.Lon)
		}
	}
	if c.SDSS.Context == "" {
		return fmt.Errorf("sdss.context is required")
	}
	if c.SDSS.PollInterval < 0 {
		return fmt.Errorf("sdss.poll_interval must not be negative")
	}
	if c.Download.Radius <= 0 {
		return fmt.Errorf("download.radius must be positive")
	}
	return nil
}

// SiteMap returns the builtin sites with configured sites added or
// replacing them.
func (c *Config) SiteMap() site.Map {
	m := site.Builtin()
	for name, s := range c.Sites {
		name = strings.ToLower(name)
		m[name] = site.FromGeodetic(name,
			unit.AngleFromDeg(s.Lat), unit.AngleFromDeg(s.Lon), s.Height)
	}
	return m
}

// OpenDatabase returns the catalog database the config describes.
func (c *Config) OpenDatabase() *catalog.Database {
	return catalog.NewDatabase(c.Database.Root, c.Database.Tables)
}

// SpectraPath returns the configured data path of a telescope, or "".
func (c *Config) SpectraPath(telescope string) string {
	for t, p := range c.Spectra {
		if strings.EqualFold(t, telescope) {
			return p
		}
	}
	return ""
}
