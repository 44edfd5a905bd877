package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"expertchat/internal/auth"
	"expertchat/internal/config"
	"expertchat/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr, experts, modelsDir, backend, serverURL, prefix string
		noPreload                                            bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		Example: "  expertchat serve --experts models/models_config.json\n" +
			"  expertchat serve --runtime server --server-url http://127.0.0.1:8081",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, os.LookupEnv)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("addr") {
				cfg.Addr = addr
			}
			if f.Changed("experts") {
				cfg.ExpertsFile = experts
			}
			if f.Changed("models-dir") {
				cfg.ModelsDir = modelsDir
			}
			if f.Changed("runtime") {
				cfg.Runtime.Backend = backend
			}
			if f.Changed("server-url") {
				cfg.Runtime.ServerURL = serverURL
			}
			if f.Changed("path-prefix") {
				cfg.PathPrefix = prefix
			}
			if noPreload {
				cfg.Preload = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
	d := config.Default()
	cmd.Flags().StringVar(&addr, "addr", d.Addr, "HTTP listen address (defaults EXPERTCHAT_ADDR)")
	cmd.Flags().StringVar(&experts, "experts", d.ExpertsFile, "Experts descriptor file")
	cmd.Flags().StringVar(&modelsDir, "models-dir", d.ModelsDir, "Directory adapter and base model paths are relative to")
	cmd.Flags().StringVar(&backend, "runtime", d.Runtime.Backend, "Inference backend: llama|server")
	cmd.Flags().StringVar(&serverURL, "server-url", d.Runtime.ServerURL, "llama-server base URL for --runtime server")
	cmd.Flags().StringVar(&prefix, "path-prefix", "", "Mount every route under this path (defaults SECRET_PATH)")
	cmd.Flags().BoolVar(&noPreload, "no-preload", false, "Do not load the first available expert at startup")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	st, err := buildStack(cfg, rt, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.mgr.Close(); err != nil {
			log.Warn().Err(err).Msg("unload on shutdown")
		}
	}()

	if cfg.UsesFallbackSecrets() {
		log.Warn().Msg("SECRET_KEY or APP_PASSWORD left at the built-in default; set both before exposing the server")
	}

	srv := newHTTPServer(ctx, cfg, st, log)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("prefix", cfg.NormalizedPrefix()).
		Str("experts", cfg.ExpertsFile).
		Str("runtime", cfg.Runtime.Backend).
		Msg("expertchat listening")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if cfg.Preload {
		go preload(ctx, st, log)
	}
	go reloadOnHangup(ctx, st, log)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown")
	}
	return nil
}

// newHTTPServer wires the gate and router. baseCtx cancels running
// generations on shutdown.
func newHTTPServer(baseCtx context.Context, cfg config.Config, st *stack, log zerolog.Logger) *http.Server {
	prefix := cfg.NormalizedPrefix()
	cookiePath := prefix
	if cookiePath == "" {
		cookiePath = "/"
	}
	gate := auth.New(auth.Options{
		Password:         cfg.Password,
		SecretKey:        cfg.SecretKey,
		RequireAuthLocal: cfg.RequireAuthLocal,
		LoginPath:        prefix + "/login",
		CookiePath:       cookiePath,
		Logger:           log.With().Str("component", "auth").Logger(),
	})
	mux := httpapi.NewMux(st.svc, httpapi.Options{
		Logger:       log.With().Str("component", "http").Logger(),
		Gate:         gate,
		PathPrefix:   prefix,
		MaxBodyBytes: cfg.MaxBodyBytes,
		TrustProxy:   cfg.TrustProxy,
		CORS: httpapi.CORSOptions{
			Enabled: cfg.CORS.Enabled,
			Origins: cfg.CORS.Origins,
			Methods: cfg.CORS.Methods,
			Headers: cfg.CORS.Headers,
		},
		BaseContext: baseCtx,
	})
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// preload loads the first available expert. Failure is logged only.
func preload(ctx context.Context, st *stack, log zerolog.Logger) {
	avail := st.svc.Experts()
	if len(avail) == 0 {
		log.Warn().Str("experts", st.store.Path()).Msg("no available experts to preload")
		return
	}
	first := avail[0]
	log.Info().Str("expert", first.ID).Str("name", first.Name).Msg("preloading")
	if _, err := st.mgr.GetOrLoad(ctx, first.ID); err != nil {
		log.Error().Err(err).Str("expert", first.ID).Msg("preload failed")
	}
}

// reloadOnHangup re-reads the experts file on SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, st *stack, log zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := st.store.Reload(); err != nil {
				log.Error().Err(err).Msg("reload experts")
				continue
			}
			log.Info().Int("experts", len(st.store.Snapshot().Experts)).Msg("experts reloaded")
		}
	}
}
