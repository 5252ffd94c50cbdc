package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/samvad-hq/site-connector/internal/config"
	"github.com/samvad-hq/site-connector/internal/logger"
	"github.com/samvad-hq/site-connector/pkg/connector"
	"github.com/samvad-hq/site-connector/pkg/httpclient"
	"github.com/samvad-hq/site-connector/pkg/profiles"
	"go.uber.org/zap"
)

// Fetcher is the connector surface the runner depends on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, partial connector.PartialConfig) (connector.Result, error)
}

// Request is one CLI invocation: an optional profile plus flag overrides.
type Request struct {
	URL       string
	Profile   string
	Overrides connector.PartialConfig
}

// Runner wires config, logging, profiles and the connector together.
type Runner struct {
	cfg      *config.Config
	profiles *profiles.Registry
	fetcher  Fetcher
	log      logger.Logger
}

// Option customises a Runner.
type Option func(*Runner)

// WithFetcher replaces the connector, mostly for tests.
func WithFetcher(f Fetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithProfiles uses reg instead of loading cfg.ProfilesFile.
func WithProfiles(reg *profiles.Registry) Option {
	return func(r *Runner) { r.profiles = reg }
}

// NewRunner builds a runner. A missing profiles file is tolerated; a broken one is not.
func NewRunner(cfg *config.Config, sugar *zap.SugaredLogger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	var log logger.Logger = &logger.NopLogger{}
	if sugar != nil {
		log = logger.New(sugar.Desugar())
	}

	r := &Runner{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(r)
	}

	if r.profiles == nil && cfg.ProfilesFile != "" {
		reg, err := profiles.LoadRegistry(cfg.ProfilesFile)
		switch {
		case err == nil:
			r.profiles = reg
			ids := make([]string, 0, len(reg.All()))
			for _, p := range reg.All() {
				ids = append(ids, p.ID)
			}
			log.InfoObj("profiles loaded", "profiles_meta", map[string]any{
				"count": len(ids),
				"ids":   ids,
			})
		case errors.Is(err, os.ErrNotExist):
			log.DebugObj("profiles file not found; continuing without profiles", "profiles_file", cfg.ProfilesFile)
		default:
			return nil, fmt.Errorf("load profiles: %w", err)
		}
	}

	if r.fetcher == nil {
		var clientOpts []httpclient.Option
		if sugar != nil {
			clientOpts = append(clientOpts, httpclient.WithLogger(sugar))
		}
		r.fetcher = connector.New(
			connector.WithClient(httpclient.NewRestyClient(0, clientOpts...)),
			connector.WithDefaults(cfg.Defaults()),
			connector.WithLogger(log),
		)
	}

	return r, nil
}

// Profiles lists the loaded profiles, if any.
func (r *Runner) Profiles() []profiles.Profile {
	return r.profiles.All()
}

// Run resolves the request against its profile and performs the fetch.
func (r *Runner) Run(ctx context.Context, req Request) (connector.Result, error) {
	target := req.URL
	partial := req.Overrides

	if req.Profile != "" {
		p, ok := r.profiles.ByID(req.Profile)
		if !ok {
			return connector.Absent(), fmt.Errorf("unknown profile %q", req.Profile)
		}
		if target == "" {
			target = p.URL
		}
		partial = overlay(p.Partial(), req.Overrides)
	}
	if target == "" {
		return connector.Absent(), &connector.ConfigError{Field: "url", Reason: "must not be empty"}
	}

	r.log.DebugObj("fetch starting", "fetch_meta", map[string]any{
		"url":     target,
		"profile": req.Profile,
	})
	return r.fetcher.Fetch(ctx, target, partial)
}

// overlay applies top over base key by key, the same way connector.Merge does.
func overlay(base, top connector.PartialConfig) connector.PartialConfig {
	out := base
	if top.Method != nil {
		out.Method = top.Method
	}
	if top.Headers != nil {
		out.Headers = maps.Clone(top.Headers)
	}
	if top.Body != nil {
		out.Body = top.Body
	}
	if top.TimeoutMillis != nil {
		out.TimeoutMillis = top.TimeoutMillis
	}
	if top.IgnoreErrors != nil {
		out.IgnoreErrors = top.IgnoreErrors
	}
	return out
}
