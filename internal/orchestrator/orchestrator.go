package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bridgekit-ai/llm-bridge/internal/executor"
	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/router"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// Fragment is one piece of streamed output together with the model that
// produced it. The attributed model may change across pre-output fallback
// but never once output has begun.
type Fragment struct {
	Text  string
	Model *registry.ModelDescriptor
}

// EmitFragment receives stream fragments in production order
type EmitFragment func(f Fragment) error

// ActiveGauge counts in-flight executions past the admission gate.
// prometheus.Gauge satisfies it.
type ActiveGauge interface {
	Inc()
	Dec()
}

// Orchestrator walks a routing decision's attempt chain, running one
// executor attempt per candidate until one succeeds. A fixed-size admission
// gate bounds how many executions are in flight across all requests.
type Orchestrator struct {
	exec        executor.Executor
	gate        *semaphore.Weighted
	maxAttempts int
	active      ActiveGauge
}

// New creates an orchestrator over the given executor
func New(exec executor.Executor, maxConcurrent int, maxFallbackAttempts int) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if maxFallbackAttempts < 0 {
		maxFallbackAttempts = 0
	}
	return &Orchestrator{
		exec:        exec,
		gate:        semaphore.NewWeighted(int64(maxConcurrent)),
		maxAttempts: maxFallbackAttempts,
	}
}

// SetActiveGauge attaches a gauge tracking executions holding a gate slot
func (o *Orchestrator) SetActiveGauge(g ActiveGauge) {
	o.active = g
}

// enter counts one execution in; the returned func counts it out
func (o *Orchestrator) enter() func() {
	if o.active == nil {
		return func() {}
	}
	o.active.Inc()
	return o.active.Dec
}

// attemptChain is the primary followed by at most maxAttempts fallbacks
func (o *Orchestrator) attemptChain(decision *router.RoutingDecision) []*registry.ModelDescriptor {
	fallbacks := decision.FallbackChain
	if len(fallbacks) > o.maxAttempts {
		fallbacks = fallbacks[:o.maxAttempts]
	}
	chain := make([]*registry.ModelDescriptor, 0, len(fallbacks)+1)
	chain = append(chain, decision.Primary)
	chain = append(chain, fallbacks...)
	return chain
}

// RunWithFallback attempts the primary model, then walks the fallback chain
// on recoverable failure. Returns the response text and the model that
// produced it.
func (o *Orchestrator) RunWithFallback(ctx context.Context, req *executor.Request, decision *router.RoutingDecision) (string, *registry.ModelDescriptor, error) {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return "", nil, fmt.Errorf("admission gate: %w", err)
	}
	defer o.gate.Release(1)
	defer o.enter()()

	chain := o.attemptChain(decision)
	var lastErr error
	lastModel := decision.Primary
	attempts := 0

	for i, model := range chain {
		if i > 0 {
			logger.Warn("fallback attempt",
				zap.Int("attempt", i),
				zap.Int("max", o.maxAttempts),
				zap.String("model", model.Name),
				zap.String("failed", chain[i-1].Name),
			)
		}
		attempts++
		text, err := o.exec.Execute(ctx, req, model)
		if err == nil {
			return text, model, nil
		}
		lastErr = err
		lastModel = model
		logger.Error("model attempt failed",
			zap.String("model", model.Name),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}

	return "", nil, &types.ExhaustedFallbackError{
		LastModel: lastModel.Name,
		LastErr:   lastErr,
		Attempts:  attempts,
	}
}

// StreamWithFallback attempts the chain in order, streaming fragments to
// emit. Once any fragment has been yielded for an attempt no further model
// switch occurs: a subsequent failure is surfaced as one final visible
// error fragment attributed to that model, then the stream ends. Only
// pre-output failures advance the chain.
func (o *Orchestrator) StreamWithFallback(ctx context.Context, req *executor.Request, decision *router.RoutingDecision, emit EmitFragment) error {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("admission gate: %w", err)
	}
	defer o.gate.Release(1)
	defer o.enter()()

	chain := o.attemptChain(decision)
	var lastErr error
	lastModel := decision.Primary
	attempts := 0

	for i, model := range chain {
		if i > 0 {
			logger.Warn("stream fallback attempt",
				zap.Int("attempt", i),
				zap.Int("max", o.maxAttempts),
				zap.String("model", model.Name),
			)
		}

		attempts++

		// Explicit state for the no-silent-switch invariant
		hasYieldedOutput := false
		err := o.exec.ExecuteStream(ctx, req, model, func(text string) error {
			hasYieldedOutput = true
			return emit(Fragment{Text: text, Model: model})
		})
		if err == nil {
			return nil
		}

		if !types.IsBackendError(err) {
			// Emit failed (caller gone) or similar non-backend error:
			// nothing visible can or should be sent
			return err
		}

		lastErr = err
		lastModel = model
		logger.Error("stream model attempt failed",
			zap.String("model", model.Name),
			zap.Bool("had_output", hasYieldedOutput),
			zap.Error(err),
		)

		if hasYieldedOutput {
			// Already sent fragments; switching models now would splice two
			// responses together. Surface the error in-stream and stop.
			_ = emit(Fragment{
				Text:  fmt.Sprintf("\n\n[Error: %v]", err),
				Model: model,
			})
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return &types.ExhaustedFallbackError{
		LastModel: lastModel.Name,
		LastErr:   lastErr,
		Attempts:  attempts,
	}
}
