package executor

import (
	"context"
	"time"

	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// Request carries the prompt material for one backend attempt. The CLI
// adapter consumes the flattened prompt, the HTTP adapter the ordered
// message list; both are prepared once per request.
type Request struct {
	Prompt       string
	SystemPrompt string
	Messages     []types.Message
	Temperature  *float64
	MaxTokens    *int
}

// Emit receives one text fragment of a streaming attempt. Returning an
// error aborts the attempt.
type Emit func(text string) error

// Executor runs a single attempt against a single model, either collecting
// the full response or streaming fragments as they arrive.
type Executor interface {
	Execute(ctx context.Context, req *Request, model *registry.ModelDescriptor) (string, error)
	ExecuteStream(ctx context.Context, req *Request, model *registry.ModelDescriptor, emit Emit) error
}

// Dispatcher routes each attempt to the adapter matching the model's
// provider type.
type Dispatcher struct {
	cli  *CLIExecutor
	http *HTTPExecutor
}

// NewDispatcher creates a dispatcher with both adapters sharing one timeout
func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		cli:  NewCLIExecutor(timeout),
		http: NewHTTPExecutor(timeout),
	}
}

func (d *Dispatcher) pick(model *registry.ModelDescriptor) Executor {
	if model.IsCLI() {
		return d.cli
	}
	return d.http
}

// Execute runs one non-streaming attempt
func (d *Dispatcher) Execute(ctx context.Context, req *Request, model *registry.ModelDescriptor) (string, error) {
	return d.pick(model).Execute(ctx, req, model)
}

// ExecuteStream runs one streaming attempt
func (d *Dispatcher) ExecuteStream(ctx context.Context, req *Request, model *registry.ModelDescriptor, emit Emit) error {
	return d.pick(model).ExecuteStream(ctx, req, model, emit)
}

var _ Executor = (*Dispatcher)(nil)
