package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventQueryRequest   AuditEventType = "query.request"
	AuditEventQueryAnswer    AuditEventType = "query.answer"
	AuditEventQueryError     AuditEventType = "query.error"
	AuditEventIngestStart    AuditEventType = "ingest.start"
	AuditEventIngestComplete AuditEventType = "ingest.complete"
	AuditEventIngestError    AuditEventType = "ingest.error"
)

// AuditEvent is a single audit log entry. Question text is recorded so a
// compliance review can reconstruct what was asked of the corpus; answers
// are recorded by length only.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	Success     bool           `json:"success"`
	Duration    time.Duration  `json:"duration_ms,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditLogger writes audit events as line-delimited JSON.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stdout",
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%d", time.Now().UnixNano())
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		enabled:   config.Enabled,
	}, nil
}

// Close releases the underlying log file. Stdout and stderr sinks are
// left open.
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Close()
	}
	return nil
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogQueryRequest logs an incoming question.
func (l *AuditLogger) LogQueryRequest(query string, k int, rerank, stream bool) {
	l.Log(&AuditEvent{
		EventType: AuditEventQueryRequest,
		Success:   true,
		Message:   "question received",
		Details: map[string]any{
			"query":  query,
			"k":      k,
			"rerank": rerank,
			"stream": stream,
		},
	})
}

// LogQueryAnswer logs a delivered answer.
func (l *AuditLogger) LogQueryAnswer(duration time.Duration, answerLen, contextCount int) {
	l.Log(&AuditEvent{
		EventType: AuditEventQueryAnswer,
		Success:   true,
		Duration:  duration,
		Message:   "answer delivered",
		Details: map[string]any{
			"answer_chars":  answerLen,
			"context_count": contextCount,
		},
	})
}

// LogQueryError logs a failed question.
func (l *AuditLogger) LogQueryError(err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventQueryError,
		Success:     false,
		Message:     "question failed",
		ErrorDetail: err.Error(),
	})
}

// LogIngestStart logs the start of an ingestion run.
func (l *AuditLogger) LogIngestStart(documentsPath string) {
	l.Log(&AuditEvent{
		EventType: AuditEventIngestStart,
		Success:   true,
		Message:   "ingestion started",
		Details:   map[string]any{"path": documentsPath},
	})
}

// LogIngestComplete logs a finished ingestion run.
func (l *AuditLogger) LogIngestComplete(status string, stored, deduplicated, skipped int, duration time.Duration) {
	l.Log(&AuditEvent{
		EventType: AuditEventIngestComplete,
		Success:   status != "failed",
		Duration:  duration,
		Message:   "ingestion finished",
		Details: map[string]any{
			"status":       status,
			"stored":       stored,
			"deduplicated": deduplicated,
			"skipped":      skipped,
		},
	})
}

// LogIngestError logs a failed ingestion run.
func (l *AuditLogger) LogIngestError(err error) {
	l.Log(&AuditEvent{
		EventType:   AuditEventIngestError,
		Success:     false,
		Message:     "ingestion failed",
		ErrorDetail: err.Error(),
	})
}
