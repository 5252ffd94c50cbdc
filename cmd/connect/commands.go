package main

import (
	"fmt"
	"strings"

	"github.com/samvad-hq/site-connector/internal/app"
	"github.com/samvad-hq/site-connector/internal/config"
	"github.com/samvad-hq/site-connector/internal/logger"
	"github.com/samvad-hq/site-connector/pkg/connector"
	"github.com/spf13/cobra"
)

type fetchFlags struct {
	method       string
	headers      []string
	data         string
	json         bool
	timeoutMs    int
	ignoreErrors bool
	profile      string
	query        string
	raw          bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "connect",
		Short:         "Fetch a URL with sane defaults and content-aware output.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newProfilesCmd())
	return root
}

func newFetchCmd() *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch [url]",
		Short: "Perform one request and print the decoded body",
		Long: `fetch issues a single HTTP request. Flags that are not given fall back to the
selected profile, then to the configured defaults. Non-2xx responses and
network failures print nothing unless --ignore-errors=false.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd, args)
			if err != nil {
				return &usageError{err: err}
			}

			runner, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			res, err := runner.Run(cmd.Context(), req)
			if err != nil {
				logger.ErrorObj("fetch failed", "error", err.Error())
				return err
			}
			return app.Render(cmd.OutOrStdout(), res, app.RenderOptions{Query: f.query, Raw: f.raw})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.method, "method", "X", "", "HTTP method")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "request header as 'Name: value' (repeatable); replaces default headers")
	fl.StringVarP(&f.data, "data", "d", "", "request body")
	fl.BoolVar(&f.json, "json", false, "send Content-Type: application/json; like -H, replaces profile and default headers")
	fl.IntVar(&f.timeoutMs, "timeout-ms", connector.DefaultTimeoutMillis, "timeout in milliseconds")
	fl.BoolVar(&f.ignoreErrors, "ignore-errors", connector.DefaultIgnoreErrors, "turn HTTP and network errors into empty output")
	fl.StringVar(&f.profile, "profile", "", "request profile id from the profiles file")
	fl.StringVar(&f.query, "query", "", "gjson path to extract from a JSON response")
	fl.BoolVar(&f.raw, "raw", false, "write binary bodies verbatim")
	return cmd
}

// request builds overrides from the flags that were explicitly set.
func (f *fetchFlags) request(cmd *cobra.Command, args []string) (app.Request, error) {
	req := app.Request{Profile: strings.TrimSpace(f.profile)}
	if len(args) == 1 {
		req.URL = args[0]
	}
	if req.URL == "" && req.Profile == "" {
		return req, fmt.Errorf("a url or --profile is required")
	}

	fl := cmd.Flags()
	if fl.Changed("method") {
		req.Overrides.Method = connector.String(strings.ToUpper(f.method))
	}
	if fl.Changed("header") || f.json {
		headers := make(map[string]string, len(f.headers)+1)
		for _, h := range f.headers {
			name, value, ok := strings.Cut(h, ":")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return req, fmt.Errorf("invalid header %q (want 'Name: value')", h)
			}
			headers[name] = strings.TrimSpace(value)
		}
		if f.json {
			headers["Content-Type"] = connector.ContentTypeJSON
		}
		req.Overrides.Headers = headers
	}
	if fl.Changed("data") {
		req.Overrides.Body = []byte(f.data)
	}
	if fl.Changed("timeout-ms") {
		req.Overrides.TimeoutMillis = connector.Int(f.timeoutMs)
	}
	if fl.Changed("ignore-errors") {
		req.Overrides.IgnoreErrors = connector.Bool(f.ignoreErrors)
	}
	return req, nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List request profiles from the profiles file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, closeLog, err := setup()
			if err != nil {
				return err
			}
			defer closeLog()

			out := cmd.OutOrStdout()
			for _, p := range runner.Profiles() {
				target := p.URL
				if target == "" {
					target = "-"
				}
				fmt.Fprintf(out, "%-20s %-60s %s\n", p.ID, target, p.Description)
			}
			return nil
		},
	}
}

func setup() (*app.Runner, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, &setupError{err: fmt.Errorf("load config: %w", err)}
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, &setupError{err: fmt.Errorf("init logger: %w", err)}
	}
	closeLog := func() { _ = logger.Close() }
	logger.DebugObj("connect starting", "config", cfg)

	runner, err := app.NewRunner(cfg, sugar)
	if err != nil {
		closeLog()
		return nil, nil, &setupError{err: err}
	}
	return runner, closeLog, nil
}
