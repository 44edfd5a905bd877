// Package chat turns chat requests into generations against the resident
// expert: it validates input, resolves the expert through the model cache,
// renders the ChatML prompt and drives the runtime.
package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"expertchat/internal/llm"
	"expertchat/internal/manager"
	"expertchat/internal/prompt"
	"expertchat/pkg/types"
)

// Options configures a Service.
type Options struct {
	Manager *manager.Manager
	// ModelsDir is used to check adapter presence when listing experts.
	ModelsDir string
	// DefaultExpert answers requests without a model_id.
	DefaultExpert string
	// MaxTokens applies when a request leaves max_tokens unset.
	MaxTokens int
	// Temperature applies when a request leaves temperature unset.
	Temperature float64
	// ForwardTemperature passes the request temperature to the runtime.
	// When false the runtime's own sampling defaults are used.
	ForwardTemperature bool
	Logger             zerolog.Logger
}

// Service implements the chat operations behind the HTTP API.
type Service struct {
	mgr                *manager.Manager
	modelsDir          string
	defaultExpert      string
	maxTokens          int
	temperature        float64
	forwardTemperature bool
	log                zerolog.Logger
}

// New builds a Service. Manager is required.
func New(opts Options) *Service {
	s := &Service{
		mgr:                opts.Manager,
		modelsDir:          opts.ModelsDir,
		defaultExpert:      opts.DefaultExpert,
		maxTokens:          opts.MaxTokens,
		temperature:        opts.Temperature,
		forwardTemperature: opts.ForwardTemperature,
		log:                opts.Logger,
	}
	if s.defaultExpert == "" {
		s.defaultExpert = "base"
	}
	if s.maxTokens <= 0 {
		s.maxTokens = 500
	}
	if s.temperature <= 0 {
		s.temperature = 0.7
	}
	return s
}

// normalize validates req and fills defaults.
func (s *Service) normalize(req types.ChatRequest) (types.ChatRequest, error) {
	if req.Message == "" {
		return req, errEmptyMessage
	}
	if req.MaxTokens < 0 {
		return req, errBadMaxTokens
	}
	if req.ModelID == "" {
		req.ModelID = s.defaultExpert
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.maxTokens
	}
	if req.Temperature == nil {
		t := s.temperature
		req.Temperature = &t
	}
	return req, nil
}

func (s *Service) params(req types.ChatRequest) llm.Params {
	p := llm.Params{MaxTokens: req.MaxTokens, Stop: []string{prompt.EndOfTurn}}
	if s.forwardTemperature {
		t := float32(*req.Temperature)
		p.Temperature = &t
	}
	return p
}

// Chat generates a complete reply. The end-of-turn marker and surrounding
// whitespace are stripped from the result.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	req, err := s.normalize(req)
	if err != nil {
		return types.ChatResponse{}, err
	}
	lease, err := s.mgr.Acquire(ctx, req.ModelID)
	if err != nil {
		s.log.Error().Err(err).Str("expert", req.ModelID).Msg("chat")
		return types.ChatResponse{}, err
	}
	defer lease.Release()

	text := prompt.Format(req.Message, req.History, lease.Info.SystemPrompt)
	out, err := lease.Model.Generate(ctx, text, s.params(req))
	if err != nil {
		s.log.Error().Err(err).Str("expert", req.ModelID).Msg("chat generation")
		return types.ChatResponse{}, err
	}
	return types.ChatResponse{Response: prompt.Clean(out), Model: lease.Info.Name}, nil
}

// Stream generates a reply token by token, calling emit for every event.
//
// Validation errors are returned before anything is emitted. Any later
// failure is delivered as a single error event and Stream returns nil. A
// non-nil error from emit (client gone) stops generation and is returned.
func (s *Service) Stream(ctx context.Context, req types.ChatRequest, emit func(types.StreamEvent) error) error {
	req, err := s.normalize(req)
	if err != nil {
		return err
	}
	log := s.log.With().Str("stream", uuid.NewString()).Str("expert", req.ModelID).Logger()

	lease, err := s.mgr.Acquire(ctx, req.ModelID)
	if err != nil {
		log.Error().Err(err).Msg("stream setup")
		return emit(types.StreamEvent{Error: err.Error()})
	}
	defer lease.Release()

	eos := lease.Tokenizer.EOSTokenID()
	text := prompt.Format(req.Message, req.History, lease.Info.SystemPrompt)

	var emitErr error
	produced := 0
	genErr := lease.Model.Stream(ctx, text, s.params(req), func(tok llm.Token) bool {
		produced++
		if prompt.ContainsEndOfTurn(tok.Text) || (eos >= 0 && tok.ID == eos) {
			return false
		}
		if emitErr = emit(types.StreamEvent{Token: tok.Text}); emitErr != nil {
			return false
		}
		return produced < req.MaxTokens
	})
	if emitErr != nil {
		log.Debug().Err(emitErr).Int("tokens", produced).Msg("client went away")
		return emitErr
	}
	if genErr != nil {
		log.Error().Err(genErr).Int("tokens", produced).Msg("stream generation")
		return emit(types.StreamEvent{Error: genErr.Error()})
	}
	log.Debug().Int("tokens", produced).Msg("stream done")
	return emit(types.StreamEvent{Done: true})
}

// Experts lists enabled experts whose adapters are present under the models dir.
func (s *Service) Experts() []types.Expert {
	return s.mgr.Catalog().Snapshot().Available(s.modelsDir)
}

// Models returns the availability list and the resident expert id.
func (s *Service) Models() types.ModelsResponse {
	models := s.Experts()
	if models == nil {
		models = []types.Expert{}
	}
	return types.ModelsResponse{Models: models, Current: s.current()}
}

// Select loads id, evicting the resident expert if different.
func (s *Service) Select(ctx context.Context, id string) (types.Expert, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Expert{}, errNoModelID
	}
	l, err := s.mgr.GetOrLoad(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("expert", id).Msg("select expert")
		return types.Expert{}, err
	}
	return l.Info, nil
}

// Health reports the cache contents.
func (s *Service) Health() types.HealthResponse {
	return types.HealthResponse{Status: "ok", LoadedModels: s.mgr.LoadedIDs(), CurrentModel: s.current()}
}

// Ready reports whether an expert is resident.
func (s *Service) Ready() bool { return s.mgr.Ready() }

func (s *Service) current() *string {
	cur, ok := s.mgr.Current()
	if !ok {
		return nil
	}
	id := cur.ID
	return &id
}
