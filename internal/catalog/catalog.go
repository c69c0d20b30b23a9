package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownCategory = errors.New("unknown category")
var ErrEmptyCatalog = errors.New("catalog has no items")

// Catalog is an ordered list of items voted on one at a time.
type Catalog struct {
	Name  string   `json:"name"  yaml:"name"  toml:"name"`
	Items []string `json:"items" yaml:"items" toml:"items"`
}

var builtin = map[string][]string{
	"fruits": {
		"Apple", "Banana", "Cherry", "Grape", "Mango", "Orange", "Pineapple",
		"Strawberry", "Watermelon", "Kiwi", "Peach", "Pear", "Lemon", "Blueberry",
		"Raspberry", "Coconut", "Papaya", "Plum", "Pomegranate", "Durian",
	},
}

// Categories lists the built-in category names.
func Categories() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func Builtin(category string) (Catalog, error) {
	items, ok := builtin[category]
	if !ok {
		return Catalog{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return Catalog{Name: category, Items: append([]string{}, items...)}, nil
}

// LoadFile reads a YAML (.yaml, .yml) or TOML (.toml) catalog.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	case ".toml":
		err = toml.Unmarshal(data, &c)
	default:
		return Catalog{}, fmt.Errorf("catalog %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("decode catalog %s: %w", path, err)
	}

	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, c.validate()
}

// Resolve prefers a catalog file and falls back to a built-in category.
func Resolve(category, file string) (Catalog, error) {
	if file != "" {
		return LoadFile(file)
	}
	return Builtin(category)
}

func (c Catalog) validate() error {
	if len(c.Items) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyCatalog, c.Name)
	}
	for i, it := range c.Items {
		if strings.TrimSpace(it) == "" {
			return fmt.Errorf("catalog %s: item %d is blank", c.Name, i)
		}
	}
	return nil
}
