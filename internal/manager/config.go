package manager

import (
	"time"

	"github.com/rs/zerolog"

	"expertchat/internal/catalog"
	"expertchat/internal/llm"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	defaultDrainTimeout  = 2 * time.Minute
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Catalog resolves expert ids. Required.
	Catalog *catalog.Store
	// ModelsDir anchors relative base model and adapter paths.
	ModelsDir string
	// Runtime loads weights. Required.
	Runtime llm.Runtime
	Logger  zerolog.Logger
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	// MaxQueueDepth bounds requests waiting for the resident model.
	MaxQueueDepth int
	// MaxWait bounds the time a request waits for a queue or generation slot.
	MaxWait time.Duration
	// DrainTimeout bounds how long an eviction waits for running generations.
	DrainTimeout time.Duration
}

// New constructs a Manager from Config, applying defaults.
func New(cfg Config) *Manager {
	m := &Manager{
		catalog:       cfg.Catalog,
		modelsDir:     cfg.ModelsDir,
		rt:            cfg.Runtime,
		log:           cfg.Logger,
		publisher:     cfg.Publisher,
		maxQueueDepth: cfg.MaxQueueDepth,
		maxWait:       cfg.MaxWait,
		drainTimeout:  cfg.DrainTimeout,
		state:         StateIdle,
	}
	if m.catalog == nil {
		m.catalog = catalog.NewStaticStore(catalog.Catalog{BaseModel: catalog.DefaultBaseModel})
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	if m.maxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	}
	if m.maxWait <= 0 {
		m.maxWait = defaultMaxWait
	}
	if m.drainTimeout <= 0 {
		m.drainTimeout = defaultDrainTimeout
	}
	return m
}
