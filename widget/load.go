package widget

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
	"github.com/yaoapp/kun/log"
	"gopkg.in/yaml.v3"
)

// LoadFile read a dashboard file and return its widget configs
func LoadFile(filename string, catalog *Catalog) ([]Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data, filepath.Ext(filename), catalog)
}

// Parse decode widget configs from JSON, JSONC, YAML or repairable JSON.
// The document is either a list of widgets or an object holding them under
// "modules" or "widgets". Widgets without a guid get a random one.
func Parse(data []byte, hint string, catalog *Catalog) ([]Config, error) {
	doc, err := decode(data, hint)
	if err != nil {
		return nil, err
	}

	items, err := widgetItems(doc)
	if err != nil {
		return nil, err
	}

	configs := make([]Config, 0, len(items))
	for i, item := range items {
		if err := ValidateSchema(item); err != nil {
			return nil, fmt.Errorf("widget #%d: %w", i, err)
		}

		raw, err := jsoniter.Marshal(item)
		if err != nil {
			return nil, err
		}

		var cfg Config
		if err := jsoniter.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("widget #%d: %w", i, err)
		}

		if cfg.GUID == "" {
			cfg.GUID = uuid.NewString()
		}

		if err := cfg.Validate(catalog); err != nil {
			return nil, fmt.Errorf("widget #%d: %w", i, err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func decode(data []byte, hint string) (interface{}, error) {
	var doc interface{}
	hint = strings.ToLower(hint)
	if strings.Contains(hint, "yaml") || strings.Contains(hint, "yml") {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	err := jsoniter.Unmarshal(data, &doc)
	if err == nil {
		return doc, nil
	}

	// comments, trailing commas, unquoted keys
	repaired, errRepair := jsonrepair.JSONRepair(string(data))
	if errRepair != nil {
		return nil, err
	}
	log.Trace("[Widget] dashboard config repaired")
	if err := jsoniter.UnmarshalFromString(repaired, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func widgetItems(doc interface{}) ([]interface{}, error) {
	switch v := doc.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, key := range []string{"modules", "widgets"} {
			if items, has := v[key]; has {
				if list, ok := items.([]interface{}); ok {
					return list, nil
				}
				return nil, fmt.Errorf("%w: %s is not a list", ErrInvalidConfig, key)
			}
		}
	}
	return nil, fmt.Errorf("%w: expected a list of widgets", ErrInvalidConfig)
}
