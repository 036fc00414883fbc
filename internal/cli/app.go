package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/abdallahh166/Orangesites-sub000/internal/config"
	"github.com/abdallahh166/Orangesites-sub000/internal/draftstore"
	"github.com/abdallahh166/Orangesites-sub000/internal/logging"
	"github.com/abdallahh166/Orangesites-sub000/internal/session"
	"github.com/abdallahh166/Orangesites-sub000/internal/tokenstore"
	"github.com/abdallahh166/Orangesites-sub000/pkg/client"
)

// environment is the set of components one command runs against.
type environment struct {
	cfg     *config.Config
	log     *zap.Logger
	api     *client.Client
	session *session.Manager
	drafts  *draftstore.Store

	closers []func() error
}

// setup loads configuration and wires the client, session and draft store.
func setup(ctx context.Context) (*environment, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, log: logger}
	env.closers = append(env.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	env.api = client.New(cfg.APIURL, client.WithTimeout(cfg.HTTPTimeout))

	var tokens tokenstore.Store = tokenstore.NewFileStore(cfg.RuntimeDir, cfg.Home)
	if noPersist {
		tokens = tokenstore.NewMemoryStore()
	}
	// A configured leeway of zero means none, not the manager's default.
	leeway := cfg.TokenExpiryLeeway
	if leeway == 0 {
		leeway = -1
	}
	env.session = session.New(env.api, tokens, session.Options{
		RefreshTimeout: cfg.RefreshTimeout,
		ExpiryLeeway:   leeway,
		Logger:         logger.Named("session"),
	})
	env.api.UseTokenSource(env.session.EnsureValidAccessToken)

	backend, err := env.draftBackend(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.drafts = draftstore.New(backend, draftstore.Options{
		MaxAge: cfg.DraftMaxAge,
		Logger: logger.Named("drafts"),
	})
	return env, nil
}

func (e *environment) draftBackend(ctx context.Context) (draftstore.Backend, error) {
	if e.cfg.DraftBackend != config.BackendRedis {
		return draftstore.NewFileBackend(e.cfg.DraftDir()), nil
	}
	rdb, err := draftstore.NewRedisClient(ctx, draftstore.RedisConfig{
		Addr:     e.cfg.RedisAddr,
		Password: e.cfg.RedisPassword,
		DB:       e.cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, rdb.Close)
	return draftstore.NewRedisBackend(rdb), nil
}

// Close releases the draft backend and flushes the log, newest first.
func (e *environment) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("close", zap.Error(err))
		}
	}
	e.closers = nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...) //nolint:errcheck // terminal output
}
