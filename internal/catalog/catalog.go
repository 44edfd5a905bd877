// Package catalog loads the experts file: the shared base model plus the list
// of selectable experts layered on top of it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"expertchat/internal/common/fsutil"
	"expertchat/pkg/types"
)

// DefaultBaseModel is used when the experts file does not exist.
const DefaultBaseModel = "mlx-community/Qwen2.5-7B-Instruct-4bit"

// Catalog is an immutable snapshot of the experts file.
type Catalog struct {
	BaseModel string
	Experts   []types.Expert
}

type fileExpert struct {
	ID           string  `json:"id" yaml:"id" toml:"id"`
	Name         string  `json:"name" yaml:"name" toml:"name"`
	AdapterPath  *string `json:"adapter_path" yaml:"adapter_path" toml:"adapter_path"`
	SystemPrompt *string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	Enabled      *bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

type fileCatalog struct {
	BaseModel string       `json:"base_model" yaml:"base_model" toml:"base_model"`
	Models    []fileExpert `json:"models" yaml:"models" toml:"models"`
}

// Load reads an experts file. A missing file yields an empty catalog over
// DefaultBaseModel. The decoder is chosen by extension; anything other than
// .yaml/.yml/.toml is read as JSON.
func Load(path string) (Catalog, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return Catalog{}, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return Catalog{BaseModel: DefaultBaseModel}, nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read experts file: %w", err)
	}
	return Parse(b, filepath.Ext(p))
}

// Parse decodes experts file contents. ext selects the format (".json", ".yaml", ".toml").
func Parse(b []byte, ext string) (Catalog, error) {
	var fc fileCatalog
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	case ".toml":
		err = toml.Unmarshal(b, &fc)
	default:
		err = json.Unmarshal(b, &fc)
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("parse experts file: %w", err)
	}
	c := Catalog{BaseModel: fc.BaseModel, Experts: make([]types.Expert, 0, len(fc.Models))}
	for _, fe := range fc.Models {
		e := types.Expert{ID: fe.ID, Name: fe.Name, Enabled: true}
		if fe.AdapterPath != nil {
			e.AdapterPath = *fe.AdapterPath
		}
		if fe.SystemPrompt != nil {
			e.SystemPrompt = *fe.SystemPrompt
		}
		if fe.Enabled != nil {
			e.Enabled = *fe.Enabled
		}
		if e.Name == "" {
			e.Name = e.ID
		}
		c.Experts = append(c.Experts, e)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks that the base model is set and expert ids are present and unique.
func (c Catalog) Validate() error {
	if strings.TrimSpace(c.BaseModel) == "" {
		return errors.New("experts file: base_model is required")
	}
	seen := make(map[string]struct{}, len(c.Experts))
	for i, e := range c.Experts {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("experts file: models[%d] has no id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("experts file: duplicate id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Lookup returns the expert with the given id, enabled or not.
func (c Catalog) Lookup(id string) (types.Expert, bool) {
	for _, e := range c.Experts {
		if e.ID == id {
			return e, true
		}
	}
	return types.Expert{}, false
}

// Available returns enabled experts, in file order, whose adapter (if any)
// exists under modelsDir.
func (c Catalog) Available(modelsDir string) []types.Expert {
	out := make([]types.Expert, 0, len(c.Experts))
	for _, e := range c.Experts {
		if !e.Enabled {
			continue
		}
		if e.HasAdapter() && !fsutil.PathExists(ResolvePath(modelsDir, e.AdapterPath)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ResolvePath joins a relative path onto modelsDir. Absolute and ~ paths are kept.
func ResolvePath(modelsDir, p string) string { return fsutil.Resolve(modelsDir, p) }

// ResolveBaseModel returns the base model as a path under modelsDir when such
// a file or directory exists, otherwise the identifier unchanged (e.g. a
// model name understood by a remote runtime).
func ResolveBaseModel(modelsDir, base string) string {
	if p := ResolvePath(modelsDir, base); p != "" && fsutil.PathExists(p) {
		return p
	}
	return base
}

// Store holds the current Catalog and can re-read it from disk.
type Store struct {
	path string
	mu   sync.RWMutex
	cur  Catalog
}

// NewStore loads path once and returns a store serving that snapshot.
func NewStore(path string) (*Store, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, cur: c}, nil
}

// NewStaticStore wraps an in-memory catalog; Reload keeps it unchanged.
func NewStaticStore(c Catalog) *Store { return &Store{cur: c} }

// Snapshot returns the current catalog. Callers must not mutate it.
func (s *Store) Snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Reload re-reads the experts file. On error the previous snapshot is kept.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := Load(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
	return nil
}

// Path returns the experts file this store reads.
func (s *Store) Path() string { return s.path }
