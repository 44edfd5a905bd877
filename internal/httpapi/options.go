package httpapi

import (
	"context"

	"github.com/rs/zerolog"

	"expertchat/internal/auth"
)

const defaultMaxBodyBytes int64 = 1 << 20

// CORSOptions configures the opt-in CORS middleware.
type CORSOptions struct {
	Enabled bool
	Origins []string
	Methods []string
	Headers []string
}

// Options configures NewMux.
type Options struct {
	Logger zerolog.Logger
	// Gate guards the chat page and the chat API. Nil disables the gate.
	Gate *auth.Gate
	// PathPrefix mounts every route under a secret path, e.g. "/a1b2".
	PathPrefix string
	// MaxBodyBytes limits JSON request bodies; defaults to 1 MiB.
	MaxBodyBytes int64
	// TrustProxy installs RealIP so X-Forwarded-For/X-Real-IP set the caller
	// address. Leave off unless a proxy strips those headers from clients.
	TrustProxy bool
	CORS       CORSOptions
	// BaseContext is canceled on shutdown and stops running generations.
	BaseContext context.Context
}

func (o Options) maxBody() int64 {
	if o.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return o.MaxBodyBytes
}
