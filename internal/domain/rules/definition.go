// Package rules builds migrations from declarative YAML definitions.
package rules

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is the YAML form of a migration.
type Definition struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description,omitempty"`
	DocumentTypes []string `yaml:"documentTypes"`
	Filter        string   `yaml:"filter,omitempty"`
	Rules         []Rule   `yaml:"rules"`
}

// Rule is one declarative change. On names the hook it runs in; exactly one
// action (Op, Replace, Rename, Patch or Delete) must be set.
type Rule struct {
	On     string         `yaml:"on"`
	Path   string         `yaml:"path,omitempty"`
	Equals yaml.Node      `yaml:"equals,omitempty"`
	Match  string         `yaml:"match,omitempty"`
	Op     map[string]any `yaml:"op,omitempty"`

	Replace *ReplaceAction `yaml:"replace,omitempty"`
	Rename  *RenameAction  `yaml:"rename,omitempty"`
	Patch   map[string]any `yaml:"patch,omitempty"`
	Delete  bool           `yaml:"delete,omitempty"`
}

// ReplaceAction rewrites matching string values.
type ReplaceAction struct {
	Pattern string `yaml:"pattern"`
	With    string `yaml:"with"`
}

// RenameAction moves an object member to a new key.
type RenameAction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ErrInvalidDefinition is returned for definitions that fail validation.
var ErrInvalidDefinition = errors.New("invalid migration definition")

// Load decodes a definition from r. Unknown fields are rejected.
func Load(r io.Reader) (Definition, error) {
	var def Definition

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}

		return Definition{}, fmt.Errorf("decode definition: %w", err)
	}

	if def.ID == "" {
		return Definition{}, fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}

	slog.Debug("Loaded migration definition", "id", def.ID, "rules", len(def.Rules))

	return def, nil
}

// LoadFile reads and decodes the definition stored at path.
func LoadFile(path string) (Definition, error) {
	// #nosec G304 - path is the definition the user asked to run
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("open definition: %w", err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("failed to close definition", "path", path, "error", err)
		}
	}()

	return Load(f)
}

// Action names the rule's action for display, e.g. "op:set" or "rename".
func (r Rule) Action() string {
	switch {
	case r.Op != nil:
		if kind, ok := r.Op["type"].(string); ok {
			return "op:" + kind
		}

		return "op"
	case r.Replace != nil:
		return "replace"
	case r.Rename != nil:
		return "rename"
	case r.Patch != nil:
		return "patch"
	case r.Delete:
		return "delete"
	}

	return ""
}
