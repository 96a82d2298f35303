package presenter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hservice/internal/dialogue"
	"hservice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingView struct {
	mu     sync.Mutex
	events []string
	offers int
}

func (v *recordingView) add(e string) {
	v.mu.Lock()
	v.events = append(v.events, e)
	v.mu.Unlock()
}

func (v *recordingView) DisplayUserMessage(text string) { v.add("user:" + text) }
func (v *recordingView) DisplayBotMessage(text string)  { v.add("bot:" + text) }
func (v *recordingView) ShowLoading()                   { v.add("loading") }
func (v *recordingView) HideLoading()                   { v.add("loaded") }
func (v *recordingView) ClearInput()                    { v.add("clear") }
func (v *recordingView) OfferNewTicket() {
	v.mu.Lock()
	v.offers++
	v.mu.Unlock()
	v.add("offer")
}

func (v *recordingView) snapshot() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.events...)
}

type scriptedProcessor struct {
	turn    *models.BotTurnResult
	err     error
	gate    chan struct{}
	started chan struct{}
	mu      sync.Mutex
	seen    [][]models.Message
}

func (s *scriptedProcessor) GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error) {
	s.mu.Lock()
	s.seen = append(s.seen, transcript)
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	out := *s.turn
	return &out, nil
}

func TestSubmitCommitsReply(t *testing.T) {
	view := &recordingView{}
	proc := &scriptedProcessor{turn: &models.BotTurnResult{Reply: "Let me look into it."}}
	p := New(proc, view)

	require.NoError(t, p.Submit(context.Background(), "my order is late"))

	assert.Equal(t, []string{"user:my order is late", "loading", "loaded", "bot:Let me look into it.", "clear"}, view.snapshot())
	assert.Equal(t, []models.Message{
		models.UserMessage("my order is late"),
		models.BotMessage("Let me look into it."),
	}, p.History())
	// the processor sees the transcript ending with the new user message
	assert.Equal(t, []models.Message{models.UserMessage("my order is late")}, proc.seen[0])
	assert.Equal(t, Idle, p.State())
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	view := &recordingView{}
	p := New(&scriptedProcessor{turn: &models.BotTurnResult{Reply: "x"}}, view)
	require.NoError(t, p.Submit(context.Background(), "   "))
	assert.Empty(t, view.snapshot())
	assert.Empty(t, p.History())
}

func TestClosedTicketNotice(t *testing.T) {
	view := &recordingView{}
	p := New(dialogue.NewMockProcessor(1), view)

	require.NoError(t, p.Submit(context.Background(), "thank you, goodbye"))
	events := view.snapshot()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "bot:"+ClosedNotice, events[len(events)-2])
	assert.Equal(t, "offer", events[len(events)-1])

	// the notice is shown but not part of the transcript
	hist := p.History()
	require.Len(t, hist, 2)
	assert.Equal(t, dialogue.MockClosingReply, hist[1].Text)
}

func TestProcessorErrorBecomesReply(t *testing.T) {
	view := &recordingView{}
	procErr := &dialogue.Error{Kind: dialogue.KindUpstreamUnavailable, Op: "remote chat", Err: errors.New("connection refused")}
	p := New(&scriptedProcessor{err: procErr}, view)

	require.NoError(t, p.Submit(context.Background(), "hello?"))
	hist := p.History()
	require.Len(t, hist, 2)
	assert.Equal(t, models.SenderBot, hist[1].Sender)
	assert.Equal(t, "An error occurred while communicating with the support service: remote chat: upstream unavailable: connection refused", hist[1].Text)
	assert.NotContains(t, view.snapshot(), "offer")
}

func TestNewTicket(t *testing.T) {
	view := &recordingView{}
	p := New(dialogue.NewMockProcessor(1), view)
	require.NoError(t, p.Submit(context.Background(), "hello"))
	before := p.TicketID()

	id, err := p.NewTicket()
	require.NoError(t, err)
	assert.NotEqual(t, before, id)
	assert.Equal(t, id, p.TicketID())
	assert.Equal(t, []models.Message{models.BotMessage(NewTicketGreet)}, p.History())
	assert.Equal(t, "bot:"+NewTicketGreet, view.snapshot()[len(view.snapshot())-1])
}

// greetGateView blocks while the new-ticket greeting is displayed.
type greetGateView struct {
	recordingView
	greeting chan struct{}
	release  chan struct{}
}

func (v *greetGateView) DisplayBotMessage(text string) {
	v.recordingView.DisplayBotMessage(text)
	if text == NewTicketGreet {
		close(v.greeting)
		<-v.release
	}
}

func TestSubmitDuringNewTicketKeepsMessage(t *testing.T) {
	view := &greetGateView{greeting: make(chan struct{}), release: make(chan struct{})}
	proc := &scriptedProcessor{
		turn:    &models.BotTurnResult{Reply: "Sure."},
		started: make(chan struct{}, 1),
	}
	p := New(proc, view)

	ticket := make(chan error, 1)
	go func() {
		_, err := p.NewTicket()
		ticket <- err
	}()
	<-view.greeting

	submitted := make(chan error, 1)
	go func() { submitted <- p.Submit(context.Background(), "where is my order?") }()

	select {
	case <-proc.started:
		t.Fatal("turn ran while the ticket was being opened")
	case <-time.After(50 * time.Millisecond):
	}

	close(view.release)
	require.NoError(t, <-ticket)
	require.NoError(t, <-submitted)

	assert.Equal(t, []models.Message{
		models.BotMessage(NewTicketGreet),
		models.UserMessage("where is my order?"),
		models.BotMessage("Sure."),
	}, p.History())
}

func startBlockedTurn(t *testing.T, p *Presenter, proc *scriptedProcessor) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- p.Submit(context.Background(), "first") }()
	select {
	case <-proc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("processor was not called")
	}
	return done
}

func TestRejectWhileBusy(t *testing.T) {
	proc := &scriptedProcessor{
		turn:    &models.BotTurnResult{Reply: "ok"},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	p := New(proc, &recordingView{})
	done := startBlockedTurn(t, p, proc)

	assert.ErrorIs(t, p.Submit(context.Background(), "second"), ErrBusy)
	_, err := p.NewTicket()
	assert.ErrorIs(t, err, ErrBusy)

	close(proc.gate)
	require.NoError(t, <-done)
	assert.Len(t, p.History(), 2)
}

func TestQueueOne(t *testing.T) {
	proc := &scriptedProcessor{
		turn:    &models.BotTurnResult{Reply: "ok"},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	p := New(proc, &recordingView{}, WithBusyPolicy(QueueOne))
	done := startBlockedTurn(t, p, proc)

	require.NoError(t, p.Submit(context.Background(), "second"))
	assert.ErrorIs(t, p.Submit(context.Background(), "third"), ErrBusy)

	close(proc.gate)
	require.NoError(t, <-done)

	hist := p.History()
	require.Len(t, hist, 4)
	assert.Equal(t, "first", hist[0].Text)
	assert.Equal(t, "second", hist[2].Text)
	assert.Equal(t, Idle, p.State())
}

func TestParseBusyPolicy(t *testing.T) {
	pol, err := ParseBusyPolicy("queue")
	require.NoError(t, err)
	assert.Equal(t, QueueOne, pol)
	pol, err = ParseBusyPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RejectWhileBusy, pol)
	_, err = ParseBusyPolicy("drop")
	assert.Error(t, err)
}
