package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hservice/internal/dialogue"
	"hservice/internal/models"
)

const DefaultBaseURL = "http://localhost:8000"

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	ChatHistory []models.Message `json:"chat_history"`
}

// ErrorBody is the body of every non-200 /chat answer.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Processor forwards transcripts to a remote hservice instance.
type Processor struct {
	baseURL  string
	token    string
	ticketID func() string
	client   *http.Client
}

type Option func(*Processor)

func WithBaseURL(url string) Option {
	return func(p *Processor) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(p *Processor) { p.token = token }
}

// WithTicketID reports the current ticket in the X-Ticket-ID header.
func WithTicketID(fn func() string) Option {
	return func(p *Processor) { p.ticketID = fn }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Processor) { p.client = c }
}

func New(opts ...Option) *Processor {
	p := &Processor{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error) {
	const op = "remote chat"
	if transcript == nil {
		transcript = []models.Message{}
	}
	payload, err := json.Marshal(ChatRequest{ChatHistory: transcript})
	if err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindInvalidRequest, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindInvalidRequest, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	if p.ticketID != nil {
		if id := p.ticketID(); id != "" {
			req.Header.Set("X-Ticket-ID", id)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindUpstreamUnavailable, Op: op, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindUpstreamUnavailable, Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		detail := errorDetail(body)
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, detail)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, &dialogue.Error{Kind: dialogue.KindRateLimited, Op: op, Err: statusErr}
		case http.StatusBadRequest:
			return nil, &dialogue.Error{Kind: dialogue.KindInvalidRequest, Op: op, Err: statusErr}
		default:
			return nil, &dialogue.Error{Kind: dialogue.KindUpstreamUnavailable, Op: op, Err: statusErr}
		}
	}

	var out struct {
		Response       *string `json:"response"`
		IsTicketClosed *bool   `json:"is_ticket_closed"`
		Intent         string  `json:"intent"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &dialogue.Error{Kind: dialogue.KindMalformedUpstreamResponse, Op: op, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if out.Response == nil || out.IsTicketClosed == nil {
		return nil, &dialogue.Error{Kind: dialogue.KindMalformedUpstreamResponse, Op: op, Err: errors.New("response or is_ticket_closed missing")}
	}

	turn := &models.BotTurnResult{Reply: *out.Response, TicketClosed: *out.IsTicketClosed}
	if out.Intent != "" {
		// the intent is informational here, an unknown label is dropped
		if in, err := models.ParseIntent(out.Intent); err == nil {
			turn.Intent = in
		}
	}
	return turn, nil
}

func errorDetail(body []byte) string {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "no detail"
	}
	return s
}
