package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/registry"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

var commandContext = exec.CommandContext

const defaultCLIBinary = "claude"

// CLIExecutor runs models through the claude command-line client. Streaming
// mode requests NDJSON output framing and decodes text-bearing events.
type CLIExecutor struct {
	timeout time.Duration
}

// NewCLIExecutor creates a CLI executor with the given per-attempt timeout
func NewCLIExecutor(timeout time.Duration) *CLIExecutor {
	return &CLIExecutor{timeout: timeout}
}

func (e *CLIExecutor) binary(model *registry.ModelDescriptor) string {
	if model.Provider.CLIPath != "" {
		return model.Provider.CLIPath
	}
	return defaultCLIBinary
}

func buildArgs(req *Request, model *registry.ModelDescriptor, stream bool) []string {
	args := []string{"-p", req.Prompt, "--model", model.ModelID, "--dangerously-skip-permissions"}
	if req.SystemPrompt != "" {
		args = append(args, "--system-prompt", req.SystemPrompt)
	}
	if stream {
		args = append(args, "--output-format", "stream-json")
	}
	return args
}

// extractText pulls the text payload out of one NDJSON event line. Only
// text-bearing event kinds contribute output; everything else returns "".
// Lines that are not JSON are returned as-is: in non-stream-json phases the
// CLI may emit raw text, and decoding must never be fatal.
func extractText(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	if !gjson.Valid(line) {
		return line
	}

	event := gjson.Parse(line)
	switch event.Get("type").String() {
	case "content_block_delta":
		if event.Get("delta.type").String() == "text_delta" {
			return event.Get("delta.text").String()
		}
	case "result":
		return event.Get("result").String()
	case "message":
		var sb strings.Builder
		for _, block := range event.Get("content").Array() {
			if block.Get("type").String() == "text" {
				sb.WriteString(block.Get("text").String())
			}
		}
		return sb.String()
	}
	return ""
}

// Execute runs the CLI to completion and returns the full response text.
// The timeout covers the whole invocation; on expiry the process is killed.
func (e *CLIExecutor) Execute(ctx context.Context, req *Request, model *registry.ModelDescriptor) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := commandContext(ctx, e.binary(model), buildArgs(req, model, false)...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Info("running CLI model",
		zap.String("model", model.ModelID),
		zap.Int("prompt_len", len(req.Prompt)),
	)

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", types.NewBackendError(model.Name, "CLI timed out", ctx.Err())
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		return "", types.NewBackendError(model.Name, "CLI failed: "+detail, err)
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", types.NewBackendError(model.Name, "CLI returned empty output", nil)
	}
	return output, nil
}

// ExecuteStream runs the CLI with stream-json framing and emits text
// fragments as lines arrive. The timeout applies to each individual read;
// on expiry or cancellation the process is killed rather than orphaned.
func (e *CLIExecutor) ExecuteStream(ctx context.Context, req *Request, model *registry.ModelDescriptor, emit Emit) error {
	cmd := commandContext(ctx, e.binary(model), buildArgs(req, model, true)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return types.NewBackendError(model.Name, "stdout pipe", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return types.NewBackendError(model.Name, "start CLI", err)
	}

	logger.Info("streaming CLI model",
		zap.String("model", model.ModelID),
		zap.Int("prompt_len", len(req.Prompt)),
	)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		scanErr <- scanner.Err()
	}()
	// The reader goroutine must not block on a line nobody consumes after
	// an early exit below
	defer func() {
		go func() {
			for range lines {
			}
		}()
	}()

	kill := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}

	emitted := false
	readTimer := time.NewTimer(e.timeout)
	defer readTimer.Stop()

readLoop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break readLoop
			}
			if text := extractText(line); text != "" {
				if err := emit(text); err != nil {
					kill()
					_ = cmd.Wait()
					return err
				}
				emitted = true
			}
			if !readTimer.Stop() {
				<-readTimer.C
			}
			readTimer.Reset(e.timeout)
		case <-readTimer.C:
			logger.Error("CLI stream read timed out", zap.String("model", model.ModelID))
			kill()
			_ = cmd.Wait()
			if emitted {
				return types.NewBackendError(model.Name, "stream read timed out", nil)
			}
			return types.NewBackendError(model.Name, "CLI timed out before producing output", nil)
		case <-ctx.Done():
			kill()
			_ = cmd.Wait()
			return types.NewBackendError(model.Name, "stream canceled", ctx.Err())
		}
	}

	if err := <-scanErr; err != nil {
		kill()
		_ = cmd.Wait()
		return types.NewBackendError(model.Name, "read CLI output", err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && emitted {
			// Natural completion already delivered output; log and accept
			logger.Error("CLI stream exited non-zero after output",
				zap.String("model", model.ModelID),
				zap.String("stderr", strings.TrimSpace(stderr.String())),
			)
			return nil
		}
		return types.NewBackendError(model.Name, "CLI failed: "+strings.TrimSpace(stderr.String()), err)
	}

	if !emitted {
		return types.NewBackendError(model.Name, "CLI produced no output", nil)
	}
	return nil
}

var _ Executor = (*CLIExecutor)(nil)
