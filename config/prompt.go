package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptFile is the optional YAML document referenced by RAG_PROMPT_FILE.
//
//	template: |
//	  Context information is below.
//	  {context}
//	  Query: {question}
//	separator: "\n"
type PromptFile struct {
	Template  string `yaml:"template"`
	Separator string `yaml:"separator"`
}

// LoadPromptFile reads and parses a prompt file. An empty path returns nil, nil.
func LoadPromptFile(path string) (*PromptFile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	if pf.Template == "" {
		return nil, fmt.Errorf("prompt file %s has no template", path)
	}

	return &pf, nil
}
