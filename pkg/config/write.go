package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/preprint/pkg/safeio"
)

// Formats lists the formats Write accepts.
var Formats = []string{"json", "yaml", "toml"}

// Marshal encodes cfg in format.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "toml":
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// Write stores cfg at path in format, keeping the permissions of an existing
// file.
func Write(path, format string, cfg *Config) error {
	data, err := Marshal(cfg, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return safeio.WriteFilePreservePerms(path, data)
}

// WriteDefault writes the built-in configuration to path.
func WriteDefault(path, format string) error {
	return Write(path, format, Default())
}

func formatOf(path string) (string, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "json":
		return "json", true
	case "yaml", "yml":
		return "yaml", true
	case "toml":
		return "toml", true
	default:
		return "", false
	}
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
