// Package engine executes plugins on worker goroutines, isolated from the
// UI loop. A plugin's code is loaded lazily when its run starts, and every
// way a run can go wrong (load failure, missing entry point, script error,
// even a panic in a host builtin) is converted into a Failure outcome
// instead of escaping into the host.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opskit/toolbox/internal/logger"
	"github.com/opskit/toolbox/internal/provision"
	"github.com/opskit/toolbox/internal/registry"
	toolboxerrors "github.com/opskit/toolbox/pkg/errors"
)

// Runner owns the set of in-flight workers. Each worker is retained until
// its outcome has been delivered on the run's channel, then released.
type Runner struct {
	log *logger.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	wg       sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(log *logger.Logger) *Runner {
	return &Runner{
		log:      log,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Start launches one run of the given plugin with the provisioned paths and
// returns immediately. Exactly one Outcome is later delivered on the
// returned channel; the channel is buffered so delivery never blocks on a
// slow consumer. Once an entry point begins executing it runs to completion
// or failure; there is no cancel signal.
func (r *Runner) Start(ctx context.Context, plugin registry.Plugin, req *provision.RunRequest) (uuid.UUID, <-chan Outcome) {
	id := uuid.New()
	ch := make(chan Outcome, 1)

	r.mu.Lock()
	r.inflight[id] = struct{}{}
	r.mu.Unlock()
	r.wg.Add(1)

	log := r.log.WithFields(map[string]any{"plugin": plugin.Name(), "run_id": id.String()})

	go func() {
		defer r.wg.Done()

		started := time.Now()
		outcome := Outcome{RunID: id, Plugin: plugin.Name()}

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					outcome.Result = nil
					outcome.Err = toolboxerrors.NewExecutionError(plugin.Name(),
						fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
				}
			}()
			outcome.Result, outcome.Err = r.run(ctx, plugin, req, log)
		}()

		outcome.Duration = time.Since(started)
		if outcome.Failed() {
			log.Error(outcome.Err, "run failed")
		} else {
			log.WithFields(map[string]any{"duration": outcome.Duration.String()}).Info("run finished")
		}

		ch <- outcome
		r.release(id)
	}()

	return id, ch
}

// run performs one execution: validate the request, load the code, invoke
// the entry point.
func (r *Runner) run(_ context.Context, plugin registry.Plugin, req *provision.RunRequest, log *logger.Logger) (any, error) {
	if err := validateRequest(plugin, req); err != nil {
		return nil, err
	}

	log.Debug("loading plugin code")
	program, err := plugin.Ref.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("running entry point")
	return program.Call(req.Paths)
}

// validateRequest enforces the RunRequest invariant: its path mapping must
// contain exactly the key set the plugin declared. An unresolved or foreign
// key aborts the run before any code is loaded.
func validateRequest(plugin registry.Plugin, req *provision.RunRequest) error {
	if req == nil {
		return toolboxerrors.NewExecutionError(plugin.Name(), fmt.Errorf("nil run request"))
	}

	declared := plugin.Meta.RequiredFiles.Keys()
	if len(req.Paths) != len(declared) {
		return toolboxerrors.NewExecutionError(plugin.Name(),
			fmt.Errorf("run request has %d paths, plugin declares %d inputs", len(req.Paths), len(declared)))
	}
	for _, key := range declared {
		if _, ok := req.Paths[key]; !ok {
			return toolboxerrors.NewExecutionError(plugin.Name(), fmt.Errorf("missing path for input %q", key))
		}
	}
	return nil
}

func (r *Runner) release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
}

// InFlight returns the number of runs whose outcomes have not yet been
// delivered.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Wait blocks until every started run has delivered its outcome. Used on
// shutdown so workers are never torn down mid-run.
func (r *Runner) Wait() {
	r.wg.Wait()
}
