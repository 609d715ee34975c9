package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the project configuration file name without extension.
const FileName = "preprint"

// Config holds all configuration for preprint
type Config struct {
	Master  string        `mapstructure:"master" json:"master" yaml:"master" toml:"master"`
	Exts    []string      `mapstructure:"exts" json:"exts" yaml:"exts" toml:"exts"`
	Cmd     string        `mapstructure:"cmd" json:"cmd" yaml:"cmd" toml:"cmd"`
	Package PackageConfig `mapstructure:"package" json:"package" yaml:"package" toml:"package"`
	Inline  InlineConfig  `mapstructure:"inline" json:"inline" yaml:"inline" toml:"inline"`
	Raster  RasterConfig  `mapstructure:"raster" json:"raster" yaml:"raster" toml:"raster"`
	Diff    DiffConfig    `mapstructure:"diff" json:"diff" yaml:"diff" toml:"diff"`
	Watch   WatchConfig   `mapstructure:"watch" json:"watch" yaml:"watch" toml:"watch"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-" json:"-" yaml:"-" toml:"-"`
}

// PackageConfig holds submission packaging options
type PackageConfig struct {
	Formats       []string `mapstructure:"formats" json:"formats" yaml:"formats" toml:"formats"`
	Style         string   `mapstructure:"style" json:"style" yaml:"style" toml:"style"` // default | arxiv | aastex
	MaxSizeMB     float64  `mapstructure:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb" toml:"max_size_mb"`
	BuildDir      string   `mapstructure:"build_dir" json:"build_dir" yaml:"build_dir" toml:"build_dir"`
	StripComments bool     `mapstructure:"strip_comments" json:"strip_comments" yaml:"strip_comments" toml:"strip_comments"`
	Bibliography  bool     `mapstructure:"bibliography" json:"bibliography" yaml:"bibliography" toml:"bibliography"`
}

// InlineConfig holds include expansion options
type InlineConfig struct {
	// MaxDepth bounds include nesting; 0 disables the bound.
	MaxDepth int `mapstructure:"max_depth" json:"max_depth" yaml:"max_depth" toml:"max_depth"`
}

// RasterConfig holds options for converting oversized figures
type RasterConfig struct {
	Command string `mapstructure:"command" json:"command" yaml:"command" toml:"command"`
	Density int    `mapstructure:"density" json:"density" yaml:"density" toml:"density"`
	Quality int    `mapstructure:"quality" json:"quality" yaml:"quality" toml:"quality"`
	Format  string `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
}

// DiffConfig holds the external tools used by the diff command
type DiffConfig struct {
	Latexdiff string `mapstructure:"latexdiff" json:"latexdiff" yaml:"latexdiff" toml:"latexdiff"`
	Latexmk   string `mapstructure:"latexmk" json:"latexmk" yaml:"latexmk" toml:"latexmk"`
}

// WatchConfig holds file watcher options
type WatchConfig struct {
	Debounce string `mapstructure:"debounce" json:"debounce" yaml:"debounce" toml:"debounce"`
}

// DebounceDuration parses Debounce, falling back to 500ms.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Master: "paper.tex",
		Exts:   []string{"tex", "pdf", "eps"},
		Cmd:    "make",
		Package: PackageConfig{
			Formats:       []string{"pdf", "eps", "ps", "png", "jpg", "tif"},
			Style:         "default",
			MaxSizeMB:     0,
			BuildDir:      "build",
			StripComments: true,
			Bibliography:  true,
		},
		Inline: InlineConfig{MaxDepth: 64},
		Raster: RasterConfig{
			Command: "magick",
			Density: 300,
			Quality: 90,
			Format:  "jpg",
		},
		Diff: DiffConfig{
			Latexdiff: "latexdiff",
			Latexmk:   "latexmk -f -pdf -bibtex-cond -c -gg",
		},
		Watch: WatchConfig{Debounce: "500ms"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("master", d.Master)
	v.SetDefault("exts", d.Exts)
	v.SetDefault("cmd", d.Cmd)

	v.SetDefault("package.formats", d.Package.Formats)
	v.SetDefault("package.style", d.Package.Style)
	v.SetDefault("package.max_size_mb", d.Package.MaxSizeMB)
	v.SetDefault("package.build_dir", d.Package.BuildDir)
	v.SetDefault("package.strip_comments", d.Package.StripComments)
	v.SetDefault("package.bibliography", d.Package.Bibliography)

	v.SetDefault("inline.max_depth", d.Inline.MaxDepth)

	v.SetDefault("raster.command", d.Raster.Command)
	v.SetDefault("raster.density", d.Raster.Density)
	v.SetDefault("raster.quality", d.Raster.Quality)
	v.SetDefault("raster.format", d.Raster.Format)

	v.SetDefault("diff.latexdiff", d.Diff.Latexdiff)
	v.SetDefault("diff.latexmk", d.Diff.Latexmk)

	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// Load reads configuration for the project in dir: built-in defaults, then
// preprint.{json,yaml,yml,toml} in dir, then PREPRINT_* environment
// variables (PREPRINT_PACKAGE_STYLE overrides package.style). A config file
// that fails schema validation is an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.AddConfigPath(dir)

	v.SetEnvPrefix("PREPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		if err := ValidateFile(used); err != nil {
			return nil, err
		}
		cfg.File = used
	}
	return &cfg, nil
}

// Find returns the project config file in dir, or "" when there is none.
func Find(dir string) string {
	for _, ext := range viper.SupportedExts {
		if _, ok := formatOf("x." + ext); !ok {
			continue
		}
		p := filepath.Join(dir, FileName+"."+ext)
		if fileExists(p) {
			return p
		}
	}
	return ""
}
