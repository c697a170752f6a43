package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mosn/layotto/domain/entities"
	"github.com/mosn/layotto/host"
	"github.com/mosn/layotto/hostfuncs"
)

// Result is the outcome of one Request.
type Result struct {
	Name     string
	Response host.Response
	Logs     []hostfuncs.LogEntry
	Failures []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool {
	return len(r.Failures) == 0
}

// Report is the outcome of a harness file.
type Report struct {
	// ID is what the module answered to proxy_get_id, if anything.
	ID      string
	Results []Result
}

// Passed reports whether every request passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return true
}

type runConfig struct {
	logger *slog.Logger
}

// RunOption configures Run.
type RunOption func(*runConfig)

// WithLogger receives runtime events and guest logs.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run loads the module of f, starts it and feeds it every request in
// order. Errors are returned for setup failures and guest traps; unmet
// expectations are reported in the Report.
func Run(ctx context.Context, f *File, opts ...RunOption) (*Report, error) {
	cfg := runConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &runner{file: f, logger: cfg.logger}
	defer r.close(ctx)

	hostOpts, err := r.hostOptions(ctx)
	if err != nil {
		return nil, err
	}
	e, p, rootID, err := r.start(ctx, f.Wasm, hostOpts...)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if report.ID, err = p.ID(ctx); err != nil {
		return nil, err
	}

	state := e.State()
	for _, req := range f.Requests {
		before := len(state.Logs())
		resp, err := p.Serve(ctx, rootID, host.Request{
			Headers:  pairs(req.Headers),
			Body:     []byte(req.Body),
			Trailers: pairs(req.Trailers),
		})
		if err != nil {
			return report, fmt.Errorf("request %q: %w", req.Name, err)
		}
		res := Result{Name: req.Name, Response: resp, Logs: state.Logs()[before:]}
		res.Failures = check(req.Expect, res)
		report.Results = append(report.Results, res)
	}
	return report, nil
}

type runner struct {
	file      *File
	logger    *slog.Logger
	executors []*host.Executor
}

func (r *runner) close(ctx context.Context) {
	for _, e := range r.executors {
		if err := e.Close(ctx); err != nil {
			r.logger.Warn("failed to close executor", "error", err)
		}
	}
}

// start loads the module at path into a new executor and starts it.
func (r *runner) start(ctx context.Context, path string, opts ...hostfuncs.Option) (*host.Executor, *host.PluginInstance, uint32, error) {
	wasmBytes, err := os.ReadFile(r.file.resolve(path))
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read module: %w", err)
	}

	e, err := host.NewExecutor(ctx, host.WithLogger(r.logger), host.WithHostOptions(opts...))
	if err != nil {
		return nil, nil, 0, err
	}
	r.executors = append(r.executors, e)

	p, err := e.LoadPlugin(ctx, wasmBytes)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	rootID, err := p.StartPlugin(ctx)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return e, p, rootID, nil
}

// storeOptions preloads the state stores. Every module of a run sees the
// same data.
func (r *runner) storeOptions() []hostfuncs.Option {
	var opts []hostfuncs.Option
	for store, values := range r.file.State {
		for key, value := range values {
			opts = append(opts, hostfuncs.WithStoreValue(store, key, []byte(value)))
		}
	}
	if r.file.LayottoFunctions {
		opts = append(opts, hostfuncs.WithLayottoFunctions(nil))
	}
	return opts
}

// hostOptions builds the host the module under test runs against. Modules
// backing services are started first so that a broken one fails the run
// before any request is sent.
func (r *runner) hostOptions(ctx context.Context) ([]hostfuncs.Option, error) {
	opts := r.storeOptions()

	if r.file.VMConfiguration != "" {
		opts = append(opts, hostfuncs.WithBuffer(entities.BufferTypeVMConfiguration, []byte(r.file.VMConfiguration)))
	}
	if len(r.file.PluginConfiguration) > 0 {
		data, err := json.Marshal(r.file.PluginConfiguration)
		if err != nil {
			return nil, fmt.Errorf("failed to encode plugin configuration: %w", err)
		}
		opts = append(opts, hostfuncs.WithBuffer(entities.BufferTypePluginConfiguration, data))
	}

	for _, svc := range r.file.Services {
		if svc.Wasm == "" {
			opts = append(opts, hostfuncs.WithService(svc.ID, hostfuncs.StaticService([]byte(svc.Response))))
			continue
		}
		_, p, rootID, err := r.start(ctx, svc.Wasm, r.storeOptions()...)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", svc.ID, err)
		}
		opts = append(opts, hostfuncs.WithService(svc.ID, moduleService(svc.ID, p, rootID)))
	}
	return opts, nil
}

// moduleService serves invocations by running the payload through p as a
// request body, the way Layotto routes proxy_invoke_service to another
// function. The method travels in the ":method" header.
func moduleService(id string, p *host.PluginInstance, rootID uint32) hostfuncs.ServiceFunc {
	return func(ctx context.Context, method string, payload []byte) ([]byte, error) {
		req := host.Request{Body: payload}
		if method != "" {
			req.Headers = [][2]string{{":method", method}}
		}
		resp, err := p.Serve(ctx, rootID, req)
		if err != nil {
			return nil, err
		}
		if resp.Paused() {
			return nil, hostfuncs.NewStatusError(entities.StatusInternalFailure, fmt.Errorf("service %s paused the request", id))
		}
		if !resp.HasBody {
			return nil, nil
		}
		return resp.Body, nil
	}
}

func check(want Expect, res Result) []string {
	var failures []string
	if want.Body != nil {
		got := string(res.Response.Body)
		if !res.Response.HasBody {
			failures = append(failures, fmt.Sprintf("expected body %q, got none", *want.Body))
		} else if got != *want.Body {
			failures = append(failures, fmt.Sprintf("expected body %q, got %q", *want.Body, got))
		}
	}
	if paused := res.Response.Paused(); paused != want.Paused {
		failures = append(failures, fmt.Sprintf("expected paused=%t, got %t", want.Paused, paused))
	}
	for _, substr := range want.LogsContain {
		if !logged(res.Logs, substr) {
			failures = append(failures, fmt.Sprintf("expected a log line containing %q", substr))
		}
	}
	return failures
}

func logged(logs []hostfuncs.LogEntry, substr string) bool {
	for _, l := range logs {
		if strings.Contains(l.Message, substr) {
			return true
		}
	}
	return false
}
