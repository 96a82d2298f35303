package dialogue

import (
	"context"
	"errors"
	"fmt"

	"hservice/internal/models"
)

// Processor produces exactly one bot turn for a transcript that ends with the
// newest user message. An empty transcript asks for the opening greeting.
type Processor interface {
	GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error)
}

// Kind classifies processor failures so each boundary can map them.
type Kind int

const (
	KindUnknown Kind = iota
	KindUpstreamUnavailable
	KindRateLimited
	KindMalformedUpstreamResponse
	KindInvalidRequest
)

var (
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")
	ErrRateLimited               = errors.New("upstream rate limited")
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")
	ErrInvalidRequest            = errors.New("invalid request")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable
	case KindRateLimited:
		return ErrRateLimited
	case KindMalformedUpstreamResponse:
		return ErrMalformedUpstreamResponse
	case KindInvalidRequest:
		return ErrInvalidRequest
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// Error is the failure returned by processors. errors.Is matches it against
// the Err* sentinel of its kind as well as the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
