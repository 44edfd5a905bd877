package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// ServerOptions configure the llama-server backed runtime.
type ServerOptions struct {
	BaseURL string
	APIKey  string
	// RequestTimeout bounds one completion request (0 disables).
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// serverRuntime implements Runtime by talking to a running llama.cpp server.
// The server owns the weights; adapters must be preloaded there with --lora
// and are switched per request through the native /completion endpoint.
type serverRuntime struct {
	baseURL    string
	apiKey     string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewServerRuntime constructs a server-backed runtime.
func NewServerRuntime(opts ServerOptions) Runtime {
	connect := opts.ConnectTimeout
	if connect <= 0 {
		connect = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout stays 0: every request carries its own context deadline.
	return &serverRuntime{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		reqTimeout: opts.RequestTimeout,
		httpClient: &http.Client{Transport: tr},
		log:        opts.Logger,
	}
}

type loraScale struct {
	ID    int     `json:"id"`
	Scale float64 `json:"scale"`
}

type serverAdapterInfo struct {
	ID    int     `json:"id"`
	Path  string  `json:"path"`
	Scale float64 `json:"scale"`
}

// serverModel is one expert as seen by the server: the base weights plus
// the scale vector that enables its adapter.
type serverModel struct {
	rt   *serverRuntime
	lora []loraScale
}

func (r *serverRuntime) Load(ctx context.Context, spec LoadSpec) (Model, Tokenizer, error) {
	if err := r.health(ctx); err != nil {
		return nil, nil, err
	}
	adapters, err := r.adapters(ctx)
	if err != nil {
		return nil, nil, err
	}
	pick := -1
	if spec.AdapterPath != "" {
		if pick, err = pickAdapter(adapters, spec.AdapterPath); err != nil {
			return nil, nil, fmt.Errorf("%w (llama server at %s)", err, r.baseURL)
		}
	}
	lora := make([]loraScale, 0, len(adapters))
	for i, a := range adapters {
		scale := 0.0
		if i == pick {
			scale = 1.0
		}
		lora = append(lora, loraScale{ID: a.ID, Scale: scale})
	}
	return &serverModel{rt: r, lora: lora}, FixedEOS(-1), nil
}

// pickAdapter returns the index of the single server adapter that best
// matches local. The server may run on another host, so paths are compared
// by their trailing components; a tie for the best score is an error.
func pickAdapter(adapters []serverAdapterInfo, local string) (int, error) {
	best, bestScore, ties := -1, 0, 0
	for i, a := range adapters {
		score := adapterMatchScore(a.Path, local)
		switch {
		case score == 0:
		case score > bestScore:
			best, bestScore, ties = i, score, 1
		case score == bestScore:
			ties++
		}
	}
	if best < 0 {
		return -1, fmt.Errorf("adapter %s is not loaded by the llama server (start it with --lora)", local)
	}
	if ties > 1 {
		return -1, fmt.Errorf("adapter %s matches %d llama server adapters equally; use full paths", local, ties)
	}
	return best, nil
}

const exactAdapterMatch = 1 << 16

// adapterMatchScore rates how well a server-reported adapter path names the
// local adapter: exact paths win, then files inside the local directory,
// then the number of trailing path components the two share. 0 means no match.
func adapterMatchScore(serverPath, local string) int {
	sp := filepath.Clean(serverPath)
	lp := filepath.Clean(local)
	if sp == lp {
		return exactAdapterMatch
	}
	if strings.HasPrefix(sp, lp+string(filepath.Separator)) {
		return exactAdapterMatch - 1
	}
	// The server may list the weights file inside the adapter directory.
	return max(commonSuffix(sp, lp), commonSuffix(filepath.Dir(sp), lp))
}

func commonSuffix(a, b string) int {
	as := splitPath(a)
	bs := splitPath(b)
	n := 0
	for n < len(as) && n < len(bs) && as[len(as)-1-n] == bs[len(bs)-1-n] {
		n++
	}
	return n
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}

func (r *serverRuntime) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	return req, nil
}

func (r *serverRuntime) health(ctx context.Context) error {
	req, err := r.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: llama server %s: %v", ErrUnavailable, r.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: llama server %s health: %s", ErrUnavailable, r.baseURL, resp.Status)
	}
	return nil
}

func (r *serverRuntime) adapters(ctx context.Context) ([]serverAdapterInfo, error) {
	req, err := r.newRequest(ctx, http.MethodGet, "/lora-adapters", nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	// Servers started without --lora may not expose the endpoint at all.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("llama server lora-adapters: %s: %s", resp.Status, string(b))
	}
	var out []serverAdapterInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode lora-adapters: %w", err)
	}
	return out, nil
}

// completionRequest is the payload of the native /completion endpoint.
type completionRequest struct {
	Prompt       string      `json:"prompt"`
	NPredict     int         `json:"n_predict,omitempty"`
	Temperature  *float32    `json:"temperature,omitempty"`
	Stop         []string    `json:"stop,omitempty"`
	Stream       bool        `json:"stream"`
	ReturnTokens bool        `json:"return_tokens,omitempty"`
	Lora         []loraScale `json:"lora,omitempty"`
}

type completionChunk struct {
	Content string `json:"content"`
	Tokens  []int  `json:"tokens"`
	Stop    bool   `json:"stop"`
}

func (s *serverModel) post(ctx context.Context, payload completionRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := s.rt.newRequest(ctx, http.MethodPost, "/completion", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := s.rt.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, errors.New("llama server http error: " + resp.Status + ": " + string(b))
	}
	return resp, nil
}

func (s *serverModel) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.rt.reqTimeout > 0 {
		return context.WithTimeout(ctx, s.rt.reqTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *serverModel) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.post(ctx, completionRequest{
		Prompt:      prompt,
		NPredict:    p.MaxTokens,
		Temperature: p.Temperature,
		Stop:        p.Stop,
		Lora:        s.lora,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var out completionChunk
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	return out.Content, nil
}

func (s *serverModel) Stream(ctx context.Context, prompt string, p Params, yield func(Token) bool) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.post(ctx, completionRequest{
		Prompt:       prompt,
		NPredict:     p.MaxTokens,
		Temperature:  p.Temperature,
		Stop:         p.Stop,
		Stream:       true,
		ReturnTokens: true,
		Lora:         s.lora,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Server-Sent Events: "data: {...}" lines separated by blank lines.
	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(line[len("data:"):])
			if data == "[DONE]" {
				return nil
			}
			var chunk completionChunk
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr != nil {
				s.rt.log.Debug().Str("line", line).Msg("llama server: unknown stream line")
			} else {
				if chunk.Content != "" {
					tok := Token{ID: -1, Text: chunk.Content}
					if len(chunk.Tokens) == 1 {
						tok.ID = chunk.Tokens[0]
					}
					if !yield(tok) {
						return nil
					}
				}
				if chunk.Stop {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// Close is a no-op: the server keeps its weights resident.
func (s *serverModel) Close() error { return nil }
