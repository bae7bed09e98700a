package listener

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// AuditLog appends every observed submission to a JSON-lines file, one
// object per line, so a round can be replayed or inspected after the fact.
type AuditLog struct {
	mu   sync.Mutex
	file *os.File
}

type auditEntry struct {
	ReceivedAt   time.Time `json:"received_at"`
	SubmissionID string    `json:"submission_id"`
	PlayerID     string    `json:"player_id"`
	BlockNumber  int64     `json:"block_number"`
	Message      string    `json:"message"`
}

// OpenAuditLog opens (or creates) the append-only audit file.
func OpenAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &AuditLog{file: f}, nil
}

// Record appends one submission.
func (a *AuditLog) Record(sub Submission) error {
	entry := auditEntry{
		ReceivedAt:   time.Now().UTC(),
		SubmissionID: sub.SubmissionID,
		PlayerID:     sub.PlayerID,
		BlockNumber:  sub.BlockNumber,
		Message:      sub.Message,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Close flushes and closes the audit file.
func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
