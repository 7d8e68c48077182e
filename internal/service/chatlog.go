package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bridgekit-ai/llm-bridge/internal/logger"
	"github.com/bridgekit-ai/llm-bridge/internal/types"
)

// ChatLog is one request record appended to the chat log file
type ChatLog struct {
	RequestID      string      `json:"request_id"`
	Timestamp      time.Time   `json:"timestamp"`
	RequestedModel string      `json:"requested_model"`
	ModelUsed      string      `json:"model_used"`
	Scenario       string      `json:"scenario"`
	Reason         string      `json:"reason"`
	Stream         bool        `json:"stream"`
	FallbackUsed   bool        `json:"fallback_used"`
	Status         string      `json:"status"`
	Error          string      `json:"error,omitempty"`
	ModelLatencyMs int64       `json:"model_latency_ms"`
	TotalLatencyMs int64       `json:"total_latency_ms"`
	Usage          types.Usage `json:"usage"`
	ResponseSample string      `json:"response_sample,omitempty"`
}

// ChatLogService appends chat log records as JSON lines from a background
// goroutine, so request handling never blocks on disk I/O.
type ChatLogService struct {
	path    string
	records chan *ChatLog
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewChatLogService creates a chat log service writing to path. An empty
// path disables logging; LogAsync becomes a no-op.
func NewChatLogService(path string) *ChatLogService {
	return &ChatLogService{
		path:    path,
		records: make(chan *ChatLog, 256),
		done:    make(chan struct{}),
	}
}

// Start launches the background writer
func (s *ChatLogService) Start() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer file.Close()
		encoder := json.NewEncoder(file)
		for {
			select {
			case record := <-s.records:
				if err := encoder.Encode(record); err != nil {
					logger.Error("failed to write chat log", zap.Error(err))
				}
			case <-s.done:
				// Drain what is already queued before exiting
				for {
					select {
					case record := <-s.records:
						if err := encoder.Encode(record); err != nil {
							logger.Error("failed to write chat log", zap.Error(err))
						}
					default:
						return
					}
				}
			}
		}
	}()
	return nil
}

// LogAsync enqueues a record without blocking; records are dropped with a
// warning when the queue is full.
func (s *ChatLogService) LogAsync(record *ChatLog) {
	if s.path == "" {
		return
	}
	select {
	case s.records <- record:
	default:
		logger.Warn("chat log queue full, dropping record",
			zap.String("request_id", record.RequestID),
		)
	}
}

// Stop flushes queued records and stops the writer
func (s *ChatLogService) Stop() {
	if s.path == "" {
		return
	}
	close(s.done)
	s.wg.Wait()
}
