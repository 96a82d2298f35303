package history

import (
	"sync"

	"hservice/internal/models"
)

// Manager keeps the transcript of one support ticket together with the bot
// reply that has been generated but not yet committed.
type Manager struct {
	mu           sync.RWMutex
	messages     []models.Message
	pending      string
	ticketClosed bool
}

func NewManager() *Manager {
	return &Manager{}
}

// AddMessage appends a message to the transcript.
func (m *Manager) AddMessage(sender models.Sender, text string) {
	m.mu.Lock()
	m.messages = append(m.messages, models.Message{Sender: sender, Text: text})
	m.mu.Unlock()
}

// SetBotResponse stores the latest uncommitted reply, replacing any previous one.
func (m *Manager) SetBotResponse(text string, ticketClosed bool) {
	m.mu.Lock()
	m.pending = text
	m.ticketClosed = ticketClosed
	m.mu.Unlock()
}

// CommitPendingReply moves the pending reply into the transcript as a bot
// message. It is a no-op when nothing is pending.
func (m *Manager) CommitPendingReply() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == "" {
		return false
	}
	m.messages = append(m.messages, models.BotMessage(m.pending))
	m.pending = ""
	return true
}

// Clear drops the transcript and the pending reply for a new ticket.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.messages = nil
	m.pending = ""
	m.ticketClosed = false
	m.mu.Unlock()
}

// Messages returns a copy of the transcript.
func (m *Manager) Messages() []models.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneTranscript(m.messages)
}

func (m *Manager) Pending() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending, m.pending != ""
}

func (m *Manager) TicketClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ticketClosed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
