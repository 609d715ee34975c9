package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed preprint-config.schema.json
var configSchema []byte

// ValidateFile decodes the config file at path according to its extension
// and validates it against the embedded schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from viper's config search
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	format, ok := formatOf(path)
	if !ok {
		return fmt.Errorf("unsupported config format: %s", path)
	}
	doc, err := decode(data, format)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ValidateConfig(doc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ValidateConfig validates a decoded configuration document.
func ValidateConfig(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(configSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

func decode(data []byte, format string) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	var err error
	switch format {
	case "json":
		err = json.Unmarshal(data, &doc)
	case "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "toml":
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	// Round-trip through JSON so the validator sees JSON types only.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	return out, json.Unmarshal(raw, &out)
}
