package types

import "github.com/goccy/go-json"

// Expert is one selectable entry of the experts file: the shared base model,
// optionally specialized by an adapter and a system prompt.
type Expert struct {
	// Stable identifier, unique within the experts file.
	// example: cooking
	ID string `json:"id" yaml:"id" toml:"id" example:"cooking"`
	// Human-friendly name shown in the UI.
	// example: Chef
	Name string `json:"name" yaml:"name" toml:"name" example:"Chef"`
	// Adapter directory relative to the models dir; empty means base model only.
	// example: adapters/cooking
	AdapterPath string `json:"adapter_path" yaml:"adapter_path" toml:"adapter_path" example:"adapters/cooking"`
	// Optional system prompt prepended to every conversation.
	// example: You are an Italian chef.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt" example:"You are an Italian chef."`
	// Disabled experts are hidden and cannot be selected.
	// example: true
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled" example:"true"`
}

// HasAdapter reports whether the expert applies an adapter on top of the base model.
func (e Expert) HasAdapter() bool { return e.AdapterPath != "" }

// MarshalJSON writes an absent adapter or system prompt as null.
func (e Expert) MarshalJSON() ([]byte, error) {
	return json.Marshal(expertJSON{
		ID:           e.ID,
		Name:         e.Name,
		AdapterPath:  nullable(e.AdapterPath),
		SystemPrompt: nullable(e.SystemPrompt),
		Enabled:      e.Enabled,
	})
}

type expertJSON struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AdapterPath  *string `json:"adapter_path"`
	SystemPrompt *string `json:"system_prompt"`
	Enabled      bool    `json:"enabled"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Turn is one past exchange resent by the client with every request.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}
