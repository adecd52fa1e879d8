package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Runner executes a set of probe modules against one target. Probes run
// concurrently, one goroutine per module; each module gets a buffered
// console so its output block stays contiguous.
type Runner struct {
	session *Session

	mu sync.Mutex // serializes console flushes
}

// NewRunner creates a runner around a prepared session.
func NewRunner(session *Session) *Runner {
	return &Runner{session: session}
}

// FetchBase performs the initial request that gates the whole run. A
// redirect is only acceptable when it points at the HTTPS form of the
// target; any status other than 200 or 401 aborts early (401 is kept so the
// auth probe can classify it).
func (r *Runner) FetchBase(ctx context.Context) error {
	resp, err := r.session.Client.Get(ctx, r.session.TargetURL)
	if err != nil {
		return fmt.Errorf("fetch initial response: %w", err)
	}

	if resp.IsRedirect() {
		if !strings.Contains(resp.Location(), "https://") {
			return fmt.Errorf("target redirects to URL: %s", resp.Location())
		}
	} else if resp.StatusCode != 200 && resp.StatusCode != 401 {
		return fmt.Errorf("target returns status code: %d", resp.StatusCode)
	}

	r.session.BaseResponse = resp
	return nil
}

// Run instantiates and executes the named modules concurrently. A module
// failure is logged and printed but never aborts the other probes.
func (r *Runner) Run(ctx context.Context, names []string, configs map[string]map[string]any) {
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			r.runModule(ctx, name, configs[name])
		}(name)
	}

	wg.Wait()
}

func (r *Runner) runModule(ctx context.Context, name string, config map[string]any) {
	logger := log.With().Str("module", name).Logger()

	buffered, buf := r.session.Console.Buffered()
	session := r.session.WithConsole(buffered)

	defer func() {
		r.mu.Lock()
		r.session.Console.Flush(buf)
		r.mu.Unlock()
	}()

	module, err := GetModuleInstance(name, config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to instantiate module")
		buffered.Error(4, "Module %q not available: %v", name, err)
		return
	}

	buffered.Header(module.Metadata().Label)

	if err := module.Run(ctx, session); err != nil {
		logger.Error().Err(err).Msg("Module execution failed")
		buffered.Error(4, "Error running module %q: %v", name, err)
	}
}
