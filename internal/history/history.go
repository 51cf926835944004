package history

import (
	"context"
	"time"
)

// Recorder stores answered questions. It is an audit log only; entries are
// never fed back into prompts.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

type Entry struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Hits      int       `json:"hits" db:"hits"`
	Grounded  bool      `json:"grounded" db:"grounded"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
