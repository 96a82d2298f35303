package turnlog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hservice/internal/models"
)

// Turn is one served /chat answer.
type Turn struct {
	TicketID     string        `json:"ticket_id,omitempty"`
	Intent       models.Intent `json:"intent,omitempty"`
	TicketClosed bool          `json:"is_ticket_closed"`
	Latency      time.Duration `json:"latency_ns"`
	At           time.Time     `json:"at"`
}

// Recorder stores served turns and aggregates intent counts.
type Recorder interface {
	Record(ctx context.Context, turn Turn) error
	IntentCounts(ctx context.Context) (map[string]int64, error)
}

// ErrUnknownTicket is returned by LastTurn for tickets without stored state.
var ErrUnknownTicket = errors.New("unknown ticket")

// TicketReader is implemented by recorders that keep per-ticket state.
type TicketReader interface {
	LastTurn(ctx context.Context, ticketID string) (*Turn, error)
}

// intentKey is the counter bucket of a turn; turns without intent are
// counted as "unclassified".
func intentKey(in models.Intent) string {
	if in == "" {
		return "unclassified"
	}
	return string(in)
}

var (
	_ TicketReader = (*MemoryRecorder)(nil)
	_ TicketReader = (*RedisRecorder)(nil)
)

// MemoryRecorder keeps turns in process.
type MemoryRecorder struct {
	mu     sync.Mutex
	counts map[string]int64
	turns  []Turn
	limit  int
}

// NewMemoryRecorder keeps at most limit recent turns (counts are unbounded).
func NewMemoryRecorder(limit int) *MemoryRecorder {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryRecorder{counts: make(map[string]int64), limit: limit}
}

func (m *MemoryRecorder) Record(ctx context.Context, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[intentKey(turn.Intent)]++
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.limit {
		m.turns = m.turns[len(m.turns)-m.limit:]
	}
	return nil
}

func (m *MemoryRecorder) IntentCounts(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

// LastTurn searches the retained turns, so tickets that fell out of the
// window are unknown.
func (m *MemoryRecorder) LastTurn(ctx context.Context, ticketID string) (*Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ticketID == "" {
		return nil, ErrUnknownTicket
	}
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].TicketID == ticketID {
			turn := m.turns[i]
			return &turn, nil
		}
	}
	return nil, ErrUnknownTicket
}

// SortedIntents orders counts by descending count then name.
func SortedIntents(counts map[string]int64) []string {
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
