package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotAppendOnly is returned when a write would drop or rewrite
	// messages already stored for the thread.
	ErrNotAppendOnly = errors.New("conversation: history is append-only")
	// ErrInvalidThreadID is returned for blank thread identifiers.
	ErrInvalidThreadID = errors.New("conversation: thread id is required")
)

// Checkpoint is the saved state of one thread.
type Checkpoint struct {
	ThreadID  string    `json:"thread_id"`
	Messages  []Message `json:"messages"`
	Step      int       `json:"step"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Checkpointer loads and stores thread checkpoints.
type Checkpointer interface {
	// Get returns the checkpoint for threadID. A thread that was never
	// written yields an empty checkpoint, not an error.
	Get(ctx context.Context, threadID string) (Checkpoint, error)
	// Put stores cp and returns it with message IDs and timestamps filled in.
	Put(ctx context.Context, cp Checkpoint) (Checkpoint, error)
}

// MemoryCheckpointer keeps checkpoints in process memory. It is safe for
// concurrent use.
type MemoryCheckpointer struct {
	mu      sync.RWMutex
	threads map[string]*thread
	now     func() time.Time
}

type thread struct {
	cp  Checkpoint
	seq uint64
}

// NewMemoryCheckpointer returns an empty in-memory store.
func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{
		threads: make(map[string]*thread),
		now:     time.Now,
	}
}

func (m *MemoryCheckpointer) Get(ctx context.Context, threadID string) (Checkpoint, error) {
	id, err := normalizeThreadID(threadID)
	if err != nil {
		return Checkpoint{}, err
	}
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[id]
	if !ok {
		return Checkpoint{ThreadID: id}, nil
	}
	out := t.cp
	out.Messages = cloneMessages(t.cp.Messages)
	return out, nil
}

func (m *MemoryCheckpointer) Put(ctx context.Context, cp Checkpoint) (Checkpoint, error) {
	id, err := normalizeThreadID(cp.ThreadID)
	if err != nil {
		return Checkpoint{}, err
	}
	if err := ctx.Err(); err != nil {
		return Checkpoint{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[id]
	if !ok {
		t = &thread{}
		m.threads[id] = t
	}
	if err := checkAppendOnly(t.cp.Messages, cp.Messages); err != nil {
		return Checkpoint{}, err
	}

	msgs := cloneMessages(cp.Messages)
	for i := len(t.cp.Messages); i < len(msgs); i++ {
		t.seq++
		if msgs[i].ID == "" {
			msgs[i].ID = fmt.Sprintf("%s-%06d", id, t.seq)
		}
		if msgs[i].Timestamp.IsZero() {
			msgs[i].Timestamp = m.now().UTC()
		} else {
			msgs[i].Timestamp = msgs[i].Timestamp.UTC()
		}
	}

	t.cp = Checkpoint{
		ThreadID:  id,
		Messages:  msgs,
		Step:      cp.Step,
		UpdatedAt: m.now().UTC(),
	}
	out := t.cp
	out.Messages = cloneMessages(msgs)
	return out, nil
}

func checkAppendOnly(stored, next []Message) error {
	if len(next) < len(stored) {
		return fmt.Errorf("%w: %d stored messages, write has %d", ErrNotAppendOnly, len(stored), len(next))
	}
	for i, old := range stored {
		n := next[i]
		if n.ID != old.ID || n.Role != old.Role || n.Content != old.Content || n.ToolCallID != old.ToolCallID {
			return fmt.Errorf("%w: message %d (%s) changed", ErrNotAppendOnly, i, old.ID)
		}
	}
	return nil
}

func normalizeThreadID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", ErrInvalidThreadID
	}
	return trimmed, nil
}
