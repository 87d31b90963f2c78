package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona overrides the built-in instructions and system directive.
type Persona struct {
	Name         string `yaml:"name"`
	Instructions string `yaml:"instructions"`
	Directive    string `yaml:"directive"`
}

func DefaultPersona() Persona {
	return Persona{
		Name:         "HypnoGuide",
		Instructions: DefaultInstructions,
		Directive:    DefaultDirective,
	}
}

// LoadPersona reads a YAML persona file. An empty path returns the defaults;
// fields left blank in the file keep their default values.
func LoadPersona(path string) (Persona, error) {
	p := DefaultPersona()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona: %w", err)
	}
	var fromFile Persona
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}
	if v := strings.TrimSpace(fromFile.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(fromFile.Instructions); v != "" {
		p.Instructions = v
	}
	if v := strings.TrimSpace(fromFile.Directive); v != "" {
		p.Directive = v
	}
	return p, nil
}
