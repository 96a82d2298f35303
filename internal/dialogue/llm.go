package dialogue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"hservice/internal/catalog"
	"hservice/internal/models"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	DefaultPacingInterval = time.Second
	DefaultRequestTimeout = 60 * time.Second
)

// LLMProcessor asks a chat model for each turn: one pacing wait, one
// Generate call under a timeout, then strict parsing of the JSON answer.
type LLMProcessor struct {
	chatModel model.BaseChatModel
	pacer     *Pacer
	timeout   time.Duration
	catalog   catalog.Repository
	logger    zerolog.Logger
}

type LLMOption func(*LLMProcessor)

func WithPacer(p *Pacer) LLMOption {
	return func(l *LLMProcessor) { l.pacer = p }
}

func WithTimeout(d time.Duration) LLMOption {
	return func(l *LLMProcessor) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithCatalog turns on the product-aware prompt.
func WithCatalog(repo catalog.Repository) LLMOption {
	return func(l *LLMProcessor) { l.catalog = repo }
}

func WithLogger(logger zerolog.Logger) LLMOption {
	return func(l *LLMProcessor) { l.logger = logger }
}

func NewLLMProcessor(chatModel model.BaseChatModel, opts ...LLMOption) (*LLMProcessor, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	p := &LLMProcessor{
		chatModel: chatModel,
		pacer:     NewPacer(DefaultPacingInterval),
		timeout:   DefaultRequestTimeout,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *LLMProcessor) GenerateResponse(ctx context.Context, transcript []models.Message) (*models.BotTurnResult, error) {
	prompt := BuildPrompt(transcript, p.catalogDump(ctx))

	if err := p.pacer.Wait(ctx); err != nil {
		return nil, newError(KindUpstreamUnavailable, "pace", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	msg, err := p.chatModel.Generate(callCtx, prompt.Messages())
	if err != nil {
		p.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("provider call failed")
		return nil, ClassifyProviderError("generate", err)
	}
	if msg == nil {
		return nil, newError(KindMalformedUpstreamResponse, "generate", errors.New("empty provider message"))
	}
	p.logger.Debug().Dur("elapsed", time.Since(start)).Int("transcript_len", len(transcript)).Msg("provider call done")

	turn, err := ParseTurn(msg.Content)
	if err != nil {
		p.logger.Warn().Err(err).Str("raw", truncate(msg.Content, 200)).Msg("unusable provider output")
		return nil, err
	}
	return turn, nil
}

// catalogDump is best effort: a failing catalog degrades to the plain prompt.
func (p *LLMProcessor) catalogDump(ctx context.Context) string {
	if p.catalog == nil {
		return ""
	}
	products, err := p.catalog.ListProducts(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("catalog unavailable, prompting without products")
		return ""
	}
	return catalog.Format(products)
}

// ClassifyProviderError maps a model error onto a processor error kind.
func ClassifyProviderError(op string, err error) *Error {
	if isRateLimit(err) {
		return newError(KindRateLimited, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindUpstreamUnavailable, op, fmt.Errorf("provider timed out: %w", err))
	}
	return newError(KindUpstreamUnavailable, op, err)
}

func isRateLimit(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resource_exhausted", "rate limit", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return statusCode429.MatchString(msg)
}

// a 429 only counts next to a status word, never inside an address or port
var statusCode429 = regexp.MustCompile(`\b(status|status code|code|error|http)[:= ]+429\b`)

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
