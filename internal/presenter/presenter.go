package presenter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hservice/internal/dialogue"
	"hservice/internal/history"
	"hservice/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ClosedNotice   = "The support ticket has been closed. Thank you for using our service!"
	NewTicketGreet = "A new support ticket has been opened. How can I assist you today?"
	errorReplyFmt  = "An error occurred while communicating with the support service: %v"
)

// ErrBusy is returned by Submit when a turn is running and the busy policy
// does not allow another submission to wait.
var ErrBusy = errors.New("a reply is still being prepared")

// View is the display surface driven by the presenter.
type View interface {
	DisplayUserMessage(text string)
	DisplayBotMessage(text string)
	ShowLoading()
	HideLoading()
	ClearInput()
	// OfferNewTicket is called after a turn closed the ticket.
	OfferNewTicket()
}

// BusyPolicy decides what happens to a submission that arrives while the
// previous turn has not been committed yet.
type BusyPolicy int

const (
	RejectWhileBusy BusyPolicy = iota
	// QueueOne keeps a single submission and runs it right after the current turn.
	QueueOne
)

// ParseBusyPolicy accepts "reject" and "queue".
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RejectWhileBusy, nil
	case "queue", "queue-one":
		return QueueOne, nil
	}
	return RejectWhileBusy, fmt.Errorf("unknown busy policy %q", s)
}

type State int

const (
	Idle State = iota
	AwaitingReply
)

// Presenter runs one chat session: it turns view submissions into processor
// calls and keeps the history in step with what the view shows.
type Presenter struct {
	mu       sync.Mutex
	state    State
	queued   *string
	ticketID string

	history   *history.Manager
	processor dialogue.Processor
	view      View
	policy    BusyPolicy
	logger    zerolog.Logger
}

type Option func(*Presenter)

func WithBusyPolicy(policy BusyPolicy) Option {
	return func(p *Presenter) { p.policy = policy }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Presenter) { p.logger = logger }
}

func New(processor dialogue.Processor, view View, opts ...Option) *Presenter {
	p := &Presenter{
		processor: processor,
		view:      view,
		history:   history.NewManager(),
		ticketID:  uuid.NewString(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit processes one user message. It returns once the reply (and any
// queued follow-up) has been committed. Blank input is ignored.
func (p *Presenter) Submit(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	p.mu.Lock()
	if p.state == AwaitingReply {
		defer p.mu.Unlock()
		if p.policy == QueueOne && p.queued == nil {
			p.queued = &text
			return nil
		}
		return ErrBusy
	}
	p.state = AwaitingReply
	p.mu.Unlock()

	for {
		p.runTurn(ctx, text)

		p.mu.Lock()
		if p.queued == nil {
			p.state = Idle
			p.mu.Unlock()
			return nil
		}
		text = *p.queued
		p.queued = nil
		p.mu.Unlock()
	}
}

func (p *Presenter) runTurn(ctx context.Context, text string) {
	p.view.DisplayUserMessage(text)
	p.view.ShowLoading()
	p.history.AddMessage(models.SenderUser, text)

	turn, err := p.processor.GenerateResponse(ctx, p.history.Messages())
	if err != nil {
		p.logger.Error().Err(err).Str("ticket", p.TicketID()).Str("kind", dialogue.KindOf(err).String()).Msg("dialogue turn failed")
		turn = &models.BotTurnResult{Reply: fmt.Sprintf(errorReplyFmt, err)}
	}
	p.history.SetBotResponse(turn.Reply, turn.TicketClosed)

	p.view.HideLoading()
	p.view.DisplayBotMessage(turn.Reply)
	p.history.CommitPendingReply()
	p.view.ClearInput()

	p.logger.Debug().Str("ticket", p.TicketID()).Str("intent", string(turn.Intent)).Bool("closed", turn.TicketClosed).Msg("turn committed")

	if turn.TicketClosed {
		p.view.DisplayBotMessage(ClosedNotice)
		p.view.OfferNewTicket()
	}
}

// NewTicket starts a fresh ticket and greets the customer. It fails with
// ErrBusy while a turn is running. A Submit arriving meanwhile waits until
// the greeting is in the history.
func (p *Presenter) NewTicket() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == AwaitingReply {
		return "", ErrBusy
	}
	p.ticketID = uuid.NewString()
	p.history.Clear()
	p.view.DisplayBotMessage(NewTicketGreet)
	p.history.AddMessage(models.SenderBot, NewTicketGreet)
	return p.ticketID, nil
}

func (p *Presenter) TicketID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticketID
}

func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// History returns the committed transcript of the current ticket.
func (p *Presenter) History() []models.Message {
	return p.history.Messages()
}
