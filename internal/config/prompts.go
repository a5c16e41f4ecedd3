package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Prompts are the instruction texts loaded once at startup.
type Prompts struct {
	System  string // main conversational instruction
	Summary string // condensation instruction for overflow history
	Reword  string // image prompt rewording instruction
}

// LoadPrompts reads the prompt files from dir.
func LoadPrompts(dir string) (*Prompts, error) {
	system, err := loadPrompt(dir, "system_prompt.txt")
	if err != nil {
		return nil, err
	}
	summary, err := loadPrompt(dir, "summary_prompt.txt")
	if err != nil {
		return nil, err
	}
	reword, err := loadPrompt(dir, "reword_prompt.txt")
	if err != nil {
		return nil, err
	}

	return &Prompts{System: system, Summary: summary, Reword: reword}, nil
}

func loadPrompt(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
