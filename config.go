package numclass

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Category is a named rule declared in a configuration document.
type Category struct {
	// Label identifies the category in results. Labels need not be unique.
	Label string `json:"label" yaml:"label"`

	// Rule is the raw rule text: a built-in name, a lambda expression or a
	// function definition. See Rule.
	Rule string `json:"rule" yaml:"rule"`

	// Args are passed to parameterised built-ins such as divisible_by.
	Args []int64 `json:"args,omitempty" yaml:"args,omitempty"`

	// Optional description; not used by the engine.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Config is a parsed configuration document.
type Config struct {
	Categories []Category `json:"categories" yaml:"categories"`
}

// Format of a configuration document.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatFor picks the document format from a file name's extension.
// Anything other than .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// document distinguishes a missing categories key from an empty list.
type document struct {
	Categories *[]Category `json:"categories" yaml:"categories"`
}

// LoadConfig reads and validates the configuration file at path.
// The file is read fully and closed before parsing.
func LoadConfig(path string) (*Config, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data, FormatFor(path))
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Path: path, Index: -1, Err: errors.New("config file not found")}
		}
		return nil, &ConfigError{Path: path, Index: -1, Err: errors.Wrap(err, "config file could not be opened")}
	}
	defer f.Close()

	st, err := f.Stat()
	if err == nil && st.IsDir() {
		return nil, &ConfigError{Path: path, Index: -1, Err: errors.New("config file not found")}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &ConfigError{Path: path, Index: -1, Err: errors.Wrap(err, "config file could not be read")}
	}
	return data, nil
}

// ParseConfig decodes a configuration document and validates that it has a
// categories list whose items all carry a label and a rule.
func ParseConfig(data []byte, format Format) (*Config, error) {
	var doc document
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&doc)
		if err == nil {
			// the document must be the only value in the file
			if _, terr := dec.Token(); terr != io.EOF {
				err = errors.New("unexpected data after the document")
			}
		}
	}
	if err != nil {
		return nil, &ConfigError{Index: -1, Err: errors.Wrap(err, "config file could not be read")}
	}

	if doc.Categories == nil {
		return nil, &ConfigError{Index: -1, Err: errors.New("config has no categories")}
	}

	cfg := &Config{Categories: *doc.Categories}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every category has a non-empty label and rule.
func (c *Config) Validate() error {
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Label) == "" {
			return &ConfigError{Index: i, Field: "label"}
		}
		if strings.TrimSpace(cat.Rule) == "" {
			return &ConfigError{Index: i, Field: "rule"}
		}
	}
	return nil
}
