package services

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/macrofit/macrofit-backend/internal/logger"
)

const promptsEnv = "PROMPTS_YAML"

//go:embed prompts.yaml
var promptsFS embed.FS

type yamlPromptSpec struct {
	Version int                   `yaml:"version"`
	Prompts map[string]promptPair `yaml:"prompts"`
}

type promptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Fallback prompts keep AI routes working when the YAML is missing or
// invalid; the embedded file is the canonical copy.
var fallbackPrompts = map[string]promptPair{
	"plan_generation": {
		System: "You are a sports nutritionist. Respond only with JSON conforming to the provided schema.",
		User: "Create a one-day meal plan with {{meals_per_day}} meals hitting {{calories}} kcal, " +
			"{{protein_g}}g protein, {{carbs_g}}g carbs, {{fat_g}}g fat. " +
			"Restrictions: {{restrictions}}. Cuisines: {{cuisines}}.",
	},
	"feedback_parse": {
		System: "You extract structured plan adjustments from user feedback. Respond only with JSON conforming to the provided schema.",
		User:   "Current plan entries:\n{{plan_context}}\n\nUser feedback:\n{{feedback}}",
	},
}

var (
	promptsOnce  sync.Once
	promptsCache map[string]promptPair
	promptsErr   error
)

func loadPrompts() (map[string]promptPair, error) {
	var data []byte
	var err error
	if path := strings.TrimSpace(os.Getenv(promptsEnv)); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = promptsFS.ReadFile("prompts.yaml")
	}
	if err != nil {
		return nil, err
	}

	var spec yamlPromptSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if len(spec.Prompts) == 0 {
		return nil, errors.New("no prompts defined")
	}
	for name, p := range spec.Prompts {
		if strings.TrimSpace(p.System) == "" || strings.TrimSpace(p.User) == "" {
			return nil, fmt.Errorf("prompt %s: system and user are required", name)
		}
	}
	return spec.Prompts, nil
}

func promptFor(log *logger.Logger, name string) promptPair {
	promptsOnce.Do(func() {
		promptsCache, promptsErr = loadPrompts()
	})
	if promptsErr == nil {
		if p, ok := promptsCache[name]; ok {
			return p
		}
	}
	if log != nil {
		log.Warn("prompt spec unavailable, using fallback", "prompt", name, "error", promptsErr)
	}
	return fallbackPrompts[name]
}

// renderPrompt substitutes {{key}} placeholders.
func renderPrompt(template string, vars map[string]string) string {
	out := template
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{{"+key+"}}", val)
	}
	return out
}
