package host

import (
	"io"
	"log/slog"

	"github.com/mosn/layotto/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

type executorConfig struct {
	logger      *slog.Logger
	state       *hostfuncs.State
	stateOpts   []hostfuncs.Option
	stdout      io.Writer
	stderr      io.Writer
	memoryPages uint32
}

// WithLogger sets the logger for runtime events and, unless WithState is
// used, for guest logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		c.logger = logger
	}
}

// WithState serves the imports from an existing state. Options passed
// through WithHostOptions are ignored when a state is given.
func WithState(state *hostfuncs.State) Option {
	return func(c *executorConfig) {
		c.state = state
	}
}

// WithHostOptions configures the state the executor builds: buffers,
// headers, stores, services and foreign functions.
func WithHostOptions(opts ...hostfuncs.Option) Option {
	return func(c *executorConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// WithOutput connects the guest's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *executorConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithMemoryLimitPages caps guest memory, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *executorConfig) {
		c.memoryPages = pages
	}
}
